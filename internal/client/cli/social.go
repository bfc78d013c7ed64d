package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

// Find prompts for a name fragment and lists the matching users. An empty
// fragment lists everyone.
func (a *App) Find(ctx context.Context) error {
	query, err := getSimpleText(a.reader, "Enter (part of) a username, empty for all", os.Stdout)
	if err != nil {
		return err
	}

	users, err := a.api.FindUsers(ctx, a.sessionToken(), query)
	if err != nil {
		log.Printf("search failed: %v", err)
		return err
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return nil
	}
	for _, u := range users {
		fmt.Println(u)
	}
	return nil
}

// Friends lists the user's friends together with their online status.
func (a *App) Friends(ctx context.Context) error {
	friends, err := a.api.Friends(ctx, a.sessionToken())
	if err != nil {
		log.Printf("friend list failed: %v", err)
		return err
	}

	if len(friends) == 0 {
		fmt.Println("No friends yet")
		return nil
	}
	for _, f := range friends {
		status := "offline"
		if f.Online {
			status = "online"
		}
		fmt.Printf("%s (%s)\n", f.Username, status)
	}
	return nil
}

// AddFriend prompts for a username and sends a friend request. The recipient
// must be online to receive it.
func (a *App) AddFriend(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter the username to befriend", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.SendFriendRequest(ctx, a.sessionToken(), userName); err != nil {
		log.Printf("friend request failed: %v", err)
		return err
	}

	fmt.Println("Friend request sent")
	return nil
}

// Accept answers a pending friend request positively.
func (a *App) Accept(ctx context.Context) error {
	return a.respond(ctx, true)
}

// Deny answers a pending friend request negatively.
func (a *App) Deny(ctx context.Context) error {
	return a.respond(ctx, false)
}

func (a *App) respond(ctx context.Context, accept bool) error {
	userName, err := getSimpleText(a.reader, "Enter the username of the requester", os.Stdout)
	if err != nil {
		return err
	}

	if accept {
		err = a.api.AcceptFriendRequest(ctx, a.sessionToken(), userName)
	} else {
		err = a.api.DenyFriendRequest(ctx, a.sessionToken(), userName)
	}
	if err != nil {
		log.Printf("response failed: %v", err)
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Requests lists the friend requests received during this session.
func (a *App) Requests(ctx context.Context) error {
	a.mu.Lock()
	pending := append([]string(nil), a.pending...)
	a.mu.Unlock()

	if len(pending) == 0 {
		fmt.Println("No friend requests received")
		return nil
	}
	for _, r := range pending {
		fmt.Println(r)
	}
	return nil
}
