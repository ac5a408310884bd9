package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Ramim1310/chat/internal/client"
	"github.com/Ramim1310/chat/internal/domain"
	"github.com/Ramim1310/chat/internal/ws"
)

func main() {
	server := flag.String("server", "http://localhost:5000", "chat server base URL")
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password (prompted when empty)")
	name := flag.String("name", "", "register a new account with this display name")
	peer := flag.Int64("peer", 0, "user id to chat with")
	flag.Parse()

	if *email == "" || *peer == 0 {
		flag.Usage()
		os.Exit(2)
	}

	pass := *password
	if pass == "" {
		fmt.Print("Password: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatal("read password:", err)
		}
		pass = strings.TrimSpace(line)
	}

	ctx := context.Background()

	api, err := client.NewAPI(*server)
	if err != nil {
		log.Fatal(err)
	}
	api.OnSessionReset = func() {
		fmt.Println("\rsession expired, please log in again")
	}

	var me *domain.User
	if *name != "" {
		me, err = api.Register(ctx, *name, *email, pass)
	} else {
		me, err = api.Login(ctx, *email, pass)
	}
	if err != nil {
		log.Fatal("auth failed:", err)
	}
	log.Printf("logged in as %s (id %d)", me.Name, me.ID)

	room := domain.PrivateRoom(me.ID, *peer)
	cache := client.NewCache(me.ID, client.DefaultSendTimeout)
	typingPeers := client.NewTypingSet()

	history, err := api.ListMessages(ctx, room)
	if err != nil {
		log.Fatal("fetch history:", err)
	}
	cache.Prime(room, history)
	for _, e := range cache.Messages(room) {
		printEntry(me.ID, e)
	}

	handlers := client.Handlers{
		OnMessage: func(msg *domain.Message) {
			if cache.ReconcileBroadcast(msg, "") {
				printEntry(me.ID, client.Entry{
					AuthorID:   msg.SenderID,
					AuthorName: senderName(msg),
					Content:    msg.Content,
					Status:     msg.Status,
				})
			}
		},
		OnMessageSent: func(ack ws.MessageSentPayload) {
			cache.ReconcileAck(room, ack.TempID, ack.ID, ack.Status, ack.Timestamp)
			fmt.Print("\r[delivered]\n> ")
		},
		OnMessagesSeen: func(seenRoom string) {
			if n := cache.MarkSeenForSelf(seenRoom); n > 0 {
				fmt.Print("\r[seen]\n> ")
			}
		},
		OnDisplayTyping: func(connID string) {
			typingPeers.Add(connID)
			fmt.Print("\rpeer is typing...\n> ")
		},
		OnHideTyping: func(connID string) {
			typingPeers.Remove(connID)
		},
		OnActiveUsers: func(users []*domain.User) {
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
			}
			fmt.Printf("\ronline: %s\n> ", strings.Join(names, ", "))
		},
		OnFriendRequest: func(req ws.FriendRequestReceivedPayload) {
			fmt.Printf("\rfriend request #%d from %s\n> ", req.RequestID, req.SenderName)
		},
		OnFriendRequestResult: func(res ws.FriendRequestResultPayload) {
			if res.OK {
				fmt.Print("\rfriend request sent\n> ")
			} else {
				fmt.Printf("\rfriend request failed: %s\n> ", res.Error)
			}
		},
		OnError: func(message string) {
			fmt.Printf("\rserver error: %s\n> ", message)
		},
		OnClose: func(err error) {
			log.Fatalf("connection lost: %v", err)
		},
	}

	live, err := client.Dial(ctx, wsURL(*server), api.Token(), handlers)
	if err != nil {
		log.Fatal(err)
	}
	defer live.Close()

	if err := live.Announce(me); err != nil {
		log.Fatal("announce:", err)
	}
	if err := live.JoinRoom(room); err != nil {
		log.Fatal("join room:", err)
	}
	// Entering the conversation marks everything unread as seen.
	if err := live.MarkMessagesRead(room, me.ID); err != nil {
		log.Println("mark read:", err)
	}

	notifier := client.NewTypingNotifier(client.DefaultTypingQuiet,
		func() { live.Typing(room) },
		func() { live.StopTyping(room) },
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	go readInput(ctx, api, live, cache, notifier, me, room, interrupt)

	<-interrupt
	fmt.Println("\rbye")
}

func readInput(
	ctx context.Context,
	api *client.API,
	live *client.Live,
	cache *client.Cache,
	notifier *client.TypingNotifier,
	me *domain.User,
	room string,
	interrupt chan os.Signal,
) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("> ")
			continue
		}

		if strings.HasPrefix(text, "/") {
			if !runCommand(ctx, api, live, cache, me, room, text) {
				close(interrupt)
				return
			}
			fmt.Print("> ")
			continue
		}

		notifier.Keystroke()
		sendMessage(live, cache, me, room, text)
		notifier.Flush()
		fmt.Print("> ")
	}
	close(interrupt)
}

// sendMessage runs the optimistic flow: insert locally, push over the live
// channel, let the message_sent ack or the timeout settle the status.
func sendMessage(live *client.Live, cache *client.Cache, me *domain.User, room, text string) {
	tempID := uuid.NewString()
	cache.InsertOptimistic(room, tempID, me.Name, text)
	if err := live.SendMessage(room, me.ID, text, tempID); err != nil {
		cache.MarkError(room, tempID)
		fmt.Printf("\rsend failed: %v\n", err)
	}
}

// runCommand handles slash commands; returns false to quit.
func runCommand(ctx context.Context, api *client.API, live *client.Live, cache *client.Cache, me *domain.User, room, text string) bool {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit":
		return false

	case "/history":
		for _, e := range cache.Messages(room) {
			printEntry(me.ID, e)
		}

	case "/seen":
		if err := live.MarkMessagesRead(room, me.ID); err != nil {
			fmt.Printf("mark read: %v\n", err)
		}

	case "/friends":
		profile, err := api.Me(ctx)
		if err != nil {
			fmt.Printf("fetch profile: %v\n", err)
			return true
		}
		for _, f := range profile.Friends {
			fmt.Printf("  %d  %s\n", f.ID, f.Name)
		}

	case "/search":
		if len(fields) < 2 {
			fmt.Println("usage: /search <name>")
			return true
		}
		users, err := api.SearchUsers(ctx, strings.Join(fields[1:], " "))
		if err != nil {
			fmt.Printf("search: %v\n", err)
			return true
		}
		for _, u := range users {
			fmt.Printf("  %d  %s\n", u.ID, u.Name)
		}

	case "/add":
		id, ok := parseID(fields, "/add <userId>")
		if !ok {
			return true
		}
		if err := live.SendFriendRequest(uuid.NewString(), me.ID, id); err != nil {
			fmt.Printf("send request: %v\n", err)
		}

	case "/pending":
		reqs, err := api.PendingFriendRequests(ctx, me.ID)
		if err != nil {
			fmt.Printf("pending: %v\n", err)
			return true
		}
		for _, r := range reqs {
			fmt.Printf("  #%d from %s\n", r.ID, senderNameOf(r))
		}

	case "/accept":
		id, ok := parseID(fields, "/accept <requestId>")
		if !ok {
			return true
		}
		if err := api.AcceptFriendRequest(ctx, id); err != nil {
			fmt.Printf("accept: %v\n", err)
		}

	case "/reject":
		id, ok := parseID(fields, "/reject <requestId>")
		if !ok {
			return true
		}
		if err := api.RejectFriendRequest(ctx, id); err != nil {
			fmt.Printf("reject: %v\n", err)
		}

	default:
		fmt.Println("commands: /history /seen /friends /search /add /pending /accept /reject /quit")
	}
	return true
}

func parseID(fields []string, usage string) (int64, bool) {
	if len(fields) < 2 {
		fmt.Println("usage:", usage)
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Println("usage:", usage)
		return 0, false
	}
	return id, true
}

func printEntry(selfID int64, e client.Entry) {
	author := e.AuthorName
	if e.AuthorID == selfID {
		author = "me"
	}
	marker := ""
	switch e.Status {
	case client.StatusSending:
		marker = " (sending)"
	case client.StatusSeen:
		marker = " (seen)"
	case client.StatusError:
		marker = " (failed)"
	}
	fmt.Printf("\r%s: %s%s\n> ", author, e.Content, marker)
}

func senderName(m *domain.Message) string {
	if m.Sender != nil {
		return m.Sender.Name
	}
	return fmt.Sprintf("user %d", m.SenderID)
}

func senderNameOf(r *domain.FriendRequest) string {
	if r.Sender != nil {
		return r.Sender.Name
	}
	return fmt.Sprintf("user %d", r.SenderID)
}

// wsURL derives the live-channel endpoint from the HTTP base URL.
func wsURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
