// rxxchat CLI - Command line client for the RXX chat service
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xzo-x0zxk1d/rxx-AI/clients/go/chatc"
)

func main() {
	baseURL := os.Getenv("RXX_CHAT_URL")
	client := chatc.NewClient(baseURL)

	if len(os.Args) < 2 {
		runChat(client)
		return
	}

	switch os.Args[1] {
	case "chat":
		runChat(client)

	case "register":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: rxxchat register <name>")
			os.Exit(1)
		}
		resp, err := client.Register(context.Background(), os.Args[2])
		exitOnError(err)
		fmt.Printf("Registered as: %s (%s)\n", resp.Name, resp.ID)
		fmt.Println("Credentials saved; keep your API key safe.")

	case "list":
		requireAuth(client)
		chats, err := client.ListChats(context.Background())
		exitOnError(err)
		printChatList(chats)

	case "health":
		resp, err := client.Health(context.Background())
		exitOnError(err)
		printJSON(resp)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// runChat starts the interactive conversation loop.
func runChat(client *chatc.Client) {
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	session := chatc.NewSession(client, logger)
	ctx := context.Background()

	// chats caches the last listing so /load and /delete can take an index.
	var chats []chatc.Chat

	for _, m := range session.Messages() {
		printMessage(m)
	}
	fmt.Println("Type a message, or /help for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			reply, err := session.Send(ctx, line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			if reply != nil {
				printMessage(*reply)
			}
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "/new":
			session.Reset()
			fmt.Println("Started a new conversation.")

		case "/list":
			requireAuth(client)
			var err error
			chats, err = client.ListChats(ctx)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			if arg != "" {
				chats = filterChats(chats, arg)
			}
			printChatList(chats)

		case "/load":
			chat, ok := pickChat(chats, arg)
			if !ok {
				continue
			}
			session.Load(*chat)
			fmt.Printf("Loaded %q (%d messages).\n", chat.Title, len(chat.Messages))
			for _, m := range session.Messages() {
				printMessage(m)
			}

		case "/save":
			if err := session.Save(ctx, arg); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			fmt.Println("Saved.")

		case "/delete":
			chat, ok := pickChat(chats, arg)
			if !ok {
				continue
			}
			if err := client.DeleteChat(ctx, chat.ID); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			session.ChatDeleted(chat.ID)
			fmt.Printf("Deleted %q.\n", chat.Title)

		case "/help":
			chatHelp()

		case "/quit", "/exit":
			return

		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s (try /help)\n", cmd)
		}
	}
}

// pickChat resolves a 1-based index from the last /list into a chat.
func pickChat(chats []chatc.Chat, arg string) (*chatc.Chat, bool) {
	if len(chats) == 0 {
		fmt.Fprintln(os.Stderr, "Run /list first.")
		return nil, false
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(chats) {
		fmt.Fprintf(os.Stderr, "Expected a number between 1 and %d.\n", len(chats))
		return nil, false
	}
	return &chats[n-1], true
}

func filterChats(chats []chatc.Chat, query string) []chatc.Chat {
	query = strings.ToLower(query)
	var out []chatc.Chat
	for _, c := range chats {
		if strings.Contains(strings.ToLower(c.Title), query) {
			out = append(out, c)
		}
	}
	return out
}

func printChatList(chats []chatc.Chat) {
	if len(chats) == 0 {
		fmt.Println("No saved chats.")
		return
	}
	for i, c := range chats {
		fmt.Printf("%3d. %-50s %s\n", i+1, c.Title, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func printMessage(m chatc.Message) {
	who := "rxx"
	if m.IsUser {
		who = "you"
	}
	fmt.Printf("[%s] %s\n", who, m.Content)
}

func requireAuth(client *chatc.Client) {
	if !client.Authenticated() {
		fmt.Fprintln(os.Stderr, "Not registered. Run: rxxchat register <name>")
		os.Exit(1)
	}
}

func chatHelp() {
	fmt.Println(`Commands:
  /new              Start a new conversation
  /list [filter]    List saved chats, optionally filtered by title
  /load <n>         Load chat n from the last listing
  /save [title]     Save the conversation (title derived if omitted)
  /delete <n>       Delete chat n from the last listing
  /quit             Exit`)
}

func usage() {
	fmt.Println(`rxxchat - RXX AI assistant client

Usage: rxxchat [command]

Commands:
  chat              Start an interactive conversation (default)
  register <name>   Register and save credentials
  list              List saved chats
  health            Check server health

Environment:
  RXX_CHAT_URL      Server URL (default: http://localhost:8080)
  RXX_CHAT_CONFIG   Config directory (default: ~/.rxxchat)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
