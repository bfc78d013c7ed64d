package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/simplesocial/simplesocial/internal/client/notify"
)

// Publish prompts for a message and posts it to the user's followers.
func (a *App) Publish(ctx context.Context) error {
	content, err := getSimpleText(a.reader, "Enter the message to publish", os.Stdout)
	if err != nil {
		return err
	}
	if content == "" {
		fmt.Println("Nothing to publish")
		return nil
	}

	if err := a.api.Publish(ctx, a.sessionToken(), content); err != nil {
		log.Printf("publish failed: %v", err)
		return err
	}

	fmt.Println("Published!")
	return nil
}

// Follow subscribes to a friend's posts and prints them as they arrive.
// Posts published while this client was offline are delivered first. The
// stream stays open in the background until the app exits.
func (a *App) Follow(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter the username to follow", os.Stdout)
	if err != nil {
		return err
	}

	stream, err := notify.Subscribe(ctx, a.config.NotifyURL, a.sessionToken(), userName)
	if err != nil {
		log.Printf("follow failed: %v", err)
		return err
	}

	go func() {
		defer stream.Close()
		for {
			n, err := stream.Next()
			if err != nil {
				return
			}
			printlnFn(fmt.Sprintf("[%s] %s", n.Author, n.Content))
		}
	}()

	go func() {
		<-ctx.Done()
		stream.Close()
	}()

	fmt.Println("Following " + userName)
	return nil
}
