package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Find(ctx context.Context) error
	Friends(ctx context.Context) error
	AddFriend(ctx context.Context) error
	Accept(ctx context.Context) error
	Deny(ctx context.Context) error
	Publish(ctx context.Context) error
	Follow(ctx context.Context) error
	Requests(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the simplesocial CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - find           — search users by (partial) name
//	  - friends        — list friends with their online status
//	  - add            — send a friend request
//	  - accept | deny  — answer a pending friend request
//	  - requests       — list friend requests received this session
//	  - publish        — post a message to followers
//	  - follow         — stream a friend's posts
//	  - logout         — log out
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ss> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: find, friends, add, accept, deny, requests, publish, follow, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}
		case "register":
			if !a.isLoggedIn() {
				a.Register(ctx)
			} else {
				printlnFn("Already logged in")
			}
		case "login":
			if !a.isLoggedIn() {
				a.Login(ctx)
			} else {
				printlnFn("Already logged in")
			}
		case "find":
			if a.isLoggedIn() {
				a.Find(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "friends":
			if a.isLoggedIn() {
				a.Friends(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "add":
			if a.isLoggedIn() {
				a.AddFriend(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "accept":
			if a.isLoggedIn() {
				a.Accept(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "deny":
			if a.isLoggedIn() {
				a.Deny(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "requests":
			if a.isLoggedIn() {
				a.Requests(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "publish":
			if a.isLoggedIn() {
				a.Publish(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "follow":
			if a.isLoggedIn() {
				a.Follow(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "logout":
			if a.isLoggedIn() {
				a.Logout(ctx)
			} else {
				printlnFn("Unknown command. Type 'help'.")
			}
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command. Type 'help'.")
		}
	}
}
