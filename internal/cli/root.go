// Package cli wires the crewlink command tree: the default TUI
// entrypoint plus a few plumbing subcommands for scripts.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/crewlink/crewlink/internal/api"
	"github.com/crewlink/crewlink/internal/chat"
	"github.com/crewlink/crewlink/internal/config"
	"github.com/crewlink/crewlink/internal/identity"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/models"
	"github.com/crewlink/crewlink/internal/session"
	"github.com/crewlink/crewlink/internal/tui"
)

func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var (
		configFile string
		serverURL  string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "crewlink",
		Short:         "Terminal messenger for the CrewLink driver marketplace",
		Long:          "crewlink opens the conversation list. Use `crewlink chat <id>` to jump straight into one conversation.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(configFile, serverURL, logLevel, "")
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&serverURL, "server", "", "Marketplace API base URL")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newChatCmd(&configFile, &serverURL, &logLevel),
		newUnreadCmd(&configFile, &serverURL, &logLevel),
		newSendCmd(&configFile, &serverURL, &logLevel),
		newStartCmd(&configFile, &serverURL, &logLevel),
	)

	return cmd
}

func newChatCmd(configFile, serverURL, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <conversation-id>",
		Short: "Open one conversation directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(*configFile, *serverURL, *logLevel, args[0])
		},
	}
}

func newUnreadCmd(configFile, serverURL, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Print the total unread message count and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(*configFile, *serverURL, *logLevel)
			if err != nil {
				return err
			}
			count, err := client.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newSendCmd(configFile, serverURL, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <message>",
		Short: "Send a message without opening the TUI",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(*configFile, *serverURL, *logLevel)
			if err != nil {
				return err
			}
			message, err := client.SendMessage(cmd.Context(), args[0], args[1], models.MessageTypeText)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message.ID)
			return nil
		},
	}
}

func newStartCmd(configFile, serverURL, logLevel *string) *cobra.Command {
	var (
		contextKind   string
		contextEntity string
	)
	cmd := &cobra.Command{
		Use:   "start <participant-id>",
		Short: "Start (or resume) a conversation with a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := buildClient(*configFile, *serverURL, *logLevel)
			if err != nil {
				return err
			}
			var convCtx *models.ConversationContext
			if contextKind != "" {
				convCtx = &models.ConversationContext{
					Kind:     models.ContextKind(contextKind),
					EntityID: contextEntity,
				}
			}
			conversation, err := client.StartConversation(cmd.Context(), args[0], convCtx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conversation.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&contextKind, "context", "", "Context kind (application, offer)")
	cmd.Flags().StringVar(&contextEntity, "entity", "", "Context entity id")
	return cmd
}

func loadConfig(configFile, serverURL, logLevel string) (*config.Config, error) {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	if serverURL != "" {
		loader.Set("server.base_url", serverURL)
	}
	if logLevel != "" {
		loader.Set("logging.level", logLevel)
	}
	return loader.Load()
}

func buildClient(configFile, serverURL, logLevel string) (*api.Client, *config.Config, error) {
	cfg, err := loadConfig(configFile, serverURL, logLevel)
	if err != nil {
		return nil, nil, err
	}

	initLogging(cfg)

	token, err := cfg.ResolveToken()
	if err != nil {
		return nil, nil, err
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.Server.BaseURL,
		Tokens:  api.StaticToken(token),
		Timeout: cfg.Server.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		// The TUI owns the terminal; without a file, logs are dropped.
		Quiet: cfg.Logging.File == "",
	})
}

func runTUI(configFile, serverURL, logLevel, conversationID string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("crewlink needs an interactive terminal; use the send/unread subcommands in scripts")
	}

	client, cfg, err := buildClient(configFile, serverURL, logLevel)
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	sess := session.New(cfg.SessionStatePath())
	// Non-fatal: a corrupt state file falls back to in-memory defaults.
	_ = sess.Load()

	// Config seeds the UI preferences on first run; after that the
	// session file follows the user's in-app toggles.
	prefs, ok := sess.Preferences()
	if !ok {
		prefs = session.Preferences{
			ShowTimestamps: cfg.TUI.ShowTimestamps,
			CompactList:    cfg.TUI.CompactMode,
		}
		sess.SetPreferences(prefs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("resolve current user: %w", err)
	}
	selfID := identity.SelfID(me)
	if selfID == "" {
		return fmt.Errorf("server session carries no user id")
	}

	return tui.Run(tui.Config{
		Client:              client,
		SelfID:              selfID,
		Session:             sess,
		Theme:               cfg.TUI.Theme,
		ShowTimestamps:      prefs.ShowTimestamps,
		CompactList:         prefs.CompactList,
		InitialConversation: conversationID,
		Polling: chat.SchedulerConfig{
			ConversationInterval: cfg.Polling.ConversationInterval,
			MessageInterval:      cfg.Polling.MessageInterval,
			UnreadInterval:       cfg.Polling.UnreadInterval,
		},
	})
}
