package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saikuru0/oshatori/client"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/store"
)

func newConnectCmd() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "connect <account>",
		Short: "Connect an account and tail its event stream",
		Long: "Connects the named account, prints normalized events as they arrive, " +
			"and sends lines typed on stdin as chat messages.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveAccount(args[0])
			if err != nil {
				return err
			}

			reg := newRegistry()
			conn, err := reg.New(rec.Protocol)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			states := client.New(log)
			connID := states.Track(rec.Protocol)
			sub := conn.Subscribe()

			if err := conn.Connect(ctx, rec.Auth); err != nil {
				return err
			}

			go readStdin(ctx, channel, func(line string) {
				sendErr := conn.Send(ctx, event.Chat(event.ChatEvent{
					Op:        event.OpNew,
					ChannelID: channel,
					Message: &domain.Message{
						Content:   []domain.Fragment{domain.TextFragment{Text: line}},
						Timestamp: time.Now().UTC(),
						Type:      domain.TypeCurrentUser,
						Status:    domain.StatusSent,
					},
				}))
				if sendErr != nil {
					log.Warn().Err(sendErr).Msg("send failed")
				}
			})

			streamDone := make(chan struct{})
			go func() {
				defer close(streamDone)
				for ev := range sub.C {
					states.Process(connID, ev)
					printEvent(ev)
				}
			}()

			select {
			case <-ctx.Done():
			case <-streamDone:
			}

			if err := conn.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("disconnect failed")
			}
			<-streamDone

			if state, ok := states.Connection(connID); ok {
				fmt.Printf("\n%d channel(s) seen, %d global user(s)\n",
					len(state.Channels), len(state.GlobalUsers))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "channel id for messages typed on stdin")
	return cmd
}

// resolveAccount looks up an account in the store first and falls back to
// the config file, so unconverted config accounts still connect.
func resolveAccount(name string) (store.AccountRecord, error) {
	accounts, done, err := openAccountStore()
	if err != nil {
		return store.AccountRecord{}, err
	}
	rec, err := accounts.Get(name)
	done()
	if err == nil {
		return rec, nil
	}

	var nf *store.ErrAccountNotFound
	if !errors.As(err, &nf) {
		return store.AccountRecord{}, err
	}

	for _, acc := range cfg.Accounts {
		if acc.Name != name {
			continue
		}
		auth, err := acc.AuthFields()
		if err != nil {
			return store.AccountRecord{}, fmt.Errorf("account %s: %w", name, err)
		}
		return store.AccountRecord{
			Name:        acc.Name,
			Protocol:    acc.Protocol,
			Auth:        auth,
			AutoConnect: acc.AutoConnect,
		}, nil
	}
	return store.AccountRecord{}, &store.ErrAccountNotFound{Name: name}
}

func readStdin(ctx context.Context, channel string, send func(string)) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if channel == "" {
			fmt.Println("no --channel set, message dropped")
			continue
		}
		send(line)
	}
}

func printEvent(ev event.ConnectionEvent) {
	switch {
	case ev.Chat != nil && ev.Chat.Message != nil:
		fmt.Printf("[%s] <%s> %s\n", ev.Chat.ChannelID, ev.Chat.Message.SenderID, ev.Chat.Message.Text())
	case ev.Chat != nil:
		fmt.Printf("[%s] chat/%s %s\n", ev.Chat.ChannelID, ev.Chat.Op, ev.Chat.MessageID)
	case ev.User != nil && ev.User.User != nil:
		name := ev.User.User.Username
		if ev.User.User.DisplayName != "" {
			name = ev.User.User.DisplayName
		}
		fmt.Printf("[%s] user/%s %s\n", ev.User.ChannelID, ev.User.Op, name)
	case ev.User != nil:
		fmt.Printf("[%s] user/%s %s\n", ev.User.ChannelID, ev.User.Op, ev.User.UserID)
	case ev.Channel != nil:
		fmt.Printf("[%s] channel/%s\n", ev.Channel.ChannelID, ev.Channel.Op)
	case ev.Status != nil:
		if ev.Status.Artifact != "" {
			fmt.Printf("status/%s: %s\n", ev.Status.Op, ev.Status.Artifact)
		} else {
			fmt.Printf("status/%s\n", ev.Status.Op)
		}
	case ev.Asset != nil:
		fmt.Printf("[%s] asset/%s %s\n", ev.Asset.ChannelID, ev.Asset.Op, ev.Asset.AssetID)
	}
}
