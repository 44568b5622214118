package main

import (
	"anonrelay/backend/internal/config"
	"anonrelay/backend/internal/models"
	"anonrelay/backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const usage = `Usage: admin [--driver sqlite|postgres] [--dsn DSN] <command> [args]

Commands:
  ban <user_id> [--reason TEXT]   ban a user and mark all their messages banned
  done <anon_id>                  mark every message with the anonymous ID as done
  pending [--limit N]             list the newest pending messages
`

func main() {
	_ = godotenv.Load()

	dbConfig, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flagSet := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	driver := flagSet.String("driver", dbConfig.Driver, "database driver")
	dsn := flagSet.String("dsn", dbConfig.DSN, "database DSN")
	flagSet.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	db, err := storage.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	if err := runCommand(context.Background(), storageSvc, flagSet.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned for malformed command lines.
var errUsage = errors.New("invalid arguments")

func runCommand(ctx context.Context, s storage.Storage, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	switch args[0] {
	case "ban":
		return banCommand(ctx, s, args[1:], out)
	case "done":
		if len(args) != 2 {
			return fmt.Errorf("%w: usage: admin done <anon_id>", errUsage)
		}
		anonID := strings.TrimPrefix(args[1], "#")
		if err := s.MarkDone(ctx, anonID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("no message found with ID #%s", anonID)
			}
			return err
		}
		fmt.Fprintf(out, "Message #%s marked as done.\n", anonID)
		return nil
	case "pending":
		return pendingCommand(ctx, s, args[1:], out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func banCommand(ctx context.Context, s storage.Storage, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("ban", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	reason := flagSet.String("reason", config.DefaultBanReason, "ban reason")
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("%w: usage: admin ban <user_id> [--reason TEXT]", errUsage)
	}

	userID, err := strconv.ParseInt(flagSet.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid user id %q", errUsage, flagSet.Arg(0))
	}
	if err := s.BanUser(ctx, userID, *reason); err != nil {
		return err
	}
	fmt.Fprintf(out, "User %d has been banned.\n", userID)
	return nil
}

func pendingCommand(ctx context.Context, s storage.Storage, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("pending", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	limit := flagSet.IntP("limit", "n", config.DefaultPendingListLimit, "maximum rows to show")
	if err := flagSet.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", errUsage)
	}

	msgs, err := s.ListPending(ctx, *limit)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No pending messages.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ANON ID\tUSER\tTYPE\tSENT\tCONTENT")
	for _, m := range msgs {
		fmt.Fprintf(w, "#%s\t%d\t%s\t%s\t%s\n",
			m.AnonID, m.UserID, m.ContentType, m.SentAt.Format(config.TimestampLayout), preview(m))
	}
	return w.Flush()
}

func preview(m models.Message) string {
	text := models.Summary(m.Payload())
	if m.ContentType == models.ContentUnknown {
		text = m.Content
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if r := []rune(text); len(r) > 40 {
		text = string(r[:40]) + "…"
	}
	return text
}
