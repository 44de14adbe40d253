package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mkraev/dockeep/internal/syncer"
)

// Register interactively creates an account on the remote store.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email:", os.Stdout)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Enter username:", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer wipe(password)

	if err := a.client.Register(ctx, email, username, string(password)); err != nil {
		fmt.Println("Registration failed:", err)
		return err
	}
	fmt.Println("Registered. You can now log in.")
	return nil
}

// Login authenticates, starts a sync session, and loads the document list
// so the session's mode is decided up front.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email:", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer wipe(password)

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		fmt.Println("Login failed:", err)
		return err
	}

	a.userName = user.Username
	a.userID = user.ID
	a.coord = syncer.New(a.client, a.cache, user.ID, a.log)

	docs, err := a.coord.Load(ctx)
	if err != nil {
		fmt.Println("Could not load documents:", err)
		return err
	}
	fmt.Printf("Logged in as %s, %d document(s).\n", user.Username, len(docs))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.SetToken("")
	a.coord = nil
	a.userName = ""
	a.userID = ""
	fmt.Println("Logged out.")
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
