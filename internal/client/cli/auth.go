package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/simplesocial/simplesocial/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and attempts to
// create a new account.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning. Any I/O or service error is returned
// unchanged.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		log.Printf("registration failed: %v", err)
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// On success it installs the session token, which also enables keep-alive
// probe replies, and advertises the friend-request listener port to the
// server. The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, userName, string(password), a.listener.Port())
	if err != nil {
		log.Printf("login failed: %v", err)
		return err
	}

	a.setSession(userName, token)
	fmt.Println("Success!")
	return nil
}

// Logout terminates the current session on the server and clears the local
// session state regardless of the server's answer.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx, a.sessionToken())
	if err != nil {
		log.Printf("logout failed: %v", err)
	}
	a.clearSession()
	fmt.Println("Logged out")
	return err
}
