package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/alexschlessinger/rotorchat/sessions"
	"github.com/urfave/cli/v3"
)

// openFileStore opens the persistent session store from config
func openFileStore(cmd *cli.Command) (*sessions.FileSessionStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return sessions.NewFileSessionStore(cfg.SessionDir, &sessions.Metadata{})
}

// runListSessions lists stored sessions, newest first
func runListSessions(_ context.Context, cmd *cli.Command) error {
	store, err := openFileStore(cmd)
	if err != nil {
		return err
	}
	return listSessions(os.Stdout, store, isTerminal())
}

func listSessions(w io.Writer, store *sessions.FileSessionStore, styled bool) error {
	all := store.GetAllMetadata()
	if len(all) == 0 {
		fmt.Fprintln(w, "No sessions found")
		return nil
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return all[b].LastUsed.Compare(all[a].LastUsed)
	})

	last := store.GetLast()
	for _, name := range names {
		md := all[name]
		line := name
		if styled {
			line = boldStyle.Styled(line)
		}
		if md.Model != "" {
			line += fmt.Sprintf(" [%s]", md.Model)
		}
		line += " - last used: " + formatDuration(time.Since(md.LastUsed))
		if name == last {
			line += " *"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// runDeleteSession removes the named sessions
func runDeleteSession(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("session name required")
	}

	store, err := openFileStore(cmd)
	if err != nil {
		return err
	}

	for _, name := range cmd.Args().Slice() {
		if err := sessions.ValidateName(name); err != nil {
			return fmt.Errorf("invalid session name %q: %w", name, err)
		}
		if !store.Exists(name) {
			return fmt.Errorf("session %q does not exist", name)
		}
		store.Delete(name)
		fmt.Fprintf(os.Stderr, "Deleted session: %s\n", name)
	}
	return nil
}

// runExpireSessions removes idle sessions past their TTL
func runExpireSessions(_ context.Context, cmd *cli.Command) error {
	store, err := openFileStore(cmd)
	if err != nil {
		return err
	}
	store.Expire()
	return nil
}
