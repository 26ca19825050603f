package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/kgellert/cloudclip/internal/client"
	messagesdomain "github.com/kgellert/cloudclip/internal/messages"
)

func main() {
	serverURL := flag.String("server", envOr("CLOUDCLIP_SERVER", "http://localhost:8082"), "server base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	deviceID, err := os.Hostname()
	if err != nil || deviceID == "" {
		deviceID = "cli"
	}

	c := client.New(strings.TrimRight(*serverURL, "/"), deviceID)

	ctx := context.Background()

	if err := login(ctx, c); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, c, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string) error {
	switch args[0] {
	case "list":
		return listMessages(ctx, c)
	case "send":
		if len(args) < 2 {
			return fmt.Errorf("usage: send <text>")
		}
		return sendText(ctx, c, strings.Join(args[1:], " "))
	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("usage: upload <file> [file ...]")
		}
		return uploadFiles(ctx, c, args[1:])
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: delete <message-id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid message id %q", args[1])
		}
		return c.DeleteMessage(ctx, id)
	case "clear":
		return clearAll(ctx, c)
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func login(ctx context.Context, c *client.Client) error {
	password := os.Getenv("CLOUDCLIP_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		password = string(raw)
	}

	ttl, err := c.Login(ctx, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "logged in, session valid for %s\n", ttl)

	return nil
}

func listMessages(ctx context.Context, c *client.Client) error {
	resp, err := c.Messages(ctx, 50, 0)
	if err != nil {
		return err
	}

	for _, msg := range resp.Data {
		ts := msg.Timestamp.Local().Format(time.DateTime)
		switch {
		case msg.Type == messagesdomain.TypeFile && msg.File != nil:
			fmt.Printf("%6d  %s  [%s]  %s (%s, %d bytes)\n",
				msg.ID, ts, msg.DeviceID, msg.File.OriginalName, msg.File.StorageKey, msg.File.SizeBytes)
		default:
			fmt.Printf("%6d  %s  [%s]  %s\n", msg.ID, ts, msg.DeviceID, msg.Content)
		}
	}

	fmt.Fprintf(os.Stderr, "%d of %d messages\n", len(resp.Data), resp.Total)

	return nil
}

func sendText(ctx context.Context, c *client.Client, content string) error {
	msg, err := c.SendText(ctx, content)
	if err != nil {
		return err
	}

	fmt.Printf("sent message %d\n", msg.ID)

	return nil
}

func uploadFiles(ctx context.Context, c *client.Client, paths []string) error {
	items := make([]client.UploadItem, 0, len(paths))
	for _, path := range paths {
		item, err := client.FileItem(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		items = append(items, item)
	}

	uploader := client.NewUploader(c, 80<<20, client.UploadCallbacks{
		OnResult: func(name string, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed  %s: %v\n", name, err)
				return
			}
			fmt.Printf("uploaded %s\n", name)
		},
	})

	succeeded, failed := uploader.Run(ctx, items)
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, succeeded+failed)
	}

	return nil
}

func clearAll(ctx context.Context, c *client.Client) error {
	fmt.Fprint(os.Stderr, "Delete ALL messages and files? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if !strings.EqualFold(answer, "y") {
		fmt.Fprintln(os.Stderr, "aborted")
		return nil
	}

	result, err := c.ClearAll(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("deleted %d messages and %d files\n", result.DeletedMessages, result.DeletedFiles)

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: cloudclip-cli [-server URL] <command>

commands:
  list                 show recent messages
  send <text>          store a text message
  upload <file> ...    upload files (up to 3 in parallel)
  delete <message-id>  delete one message
  clear                delete everything`)
}
