package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"messenger/backend/internal/auth"
	"messenger/backend/internal/config"
	"messenger/backend/internal/logger"
	"messenger/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const usage = `Usage: admin <command> [args]

  link <phone> <chatId>   route login codes for phone to a Telegram chat
  unlink <phone>          remove the Telegram route
  token <userId>          issue a session token
  whois <phone>           show the user registered with phone`

var errUsage = errors.New(usage)

type admin struct {
	ephemeral storage.Ephemeral
	// durable opens postgres for the commands that need it; the returned
	// func releases the pool.
	durable func() (storage.Storage, func(), error)
	tokens  *auth.TokenIssuer
	out     io.Writer
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log := logger.New(cfg.LogLevel, true).Output(zerolog.ConsoleWriter{Out: stderr})

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error().Err(err).Msg("invalid REDIS_URL")
		return 1
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	a := &admin{
		ephemeral: storage.NewStorageService(nil, rdb),
		durable: func() (storage.Storage, func(), error) {
			db, err := storage.OpenPostgres(cfg.DatabaseURL)
			if err != nil {
				return nil, nil, err
			}
			release := func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}
			return storage.NewStorageService(db, rdb), release, nil
		},
		tokens: auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		out:    stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, usage)
			return 2
		}
		log.Error().Err(err).Msg("command failed")
		return 1
	}
	return 0
}

func (a *admin) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "link":
		if len(args) != 3 {
			return errUsage
		}
		phone, err := auth.NormalizePhone(args[1])
		if err != nil {
			return err
		}
		chatID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || chatID == 0 {
			return fmt.Errorf("invalid chat id %q", args[2])
		}
		if err := a.ephemeral.LinkTelegram(ctx, phone, chatID, config.TelegramLinkTTL); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Phone %s linked to chat %d.\n", phone, chatID)

	case "unlink":
		if len(args) != 2 {
			return errUsage
		}
		phone, err := auth.NormalizePhone(args[1])
		if err != nil {
			return err
		}
		if err := a.ephemeral.UnlinkTelegram(ctx, phone); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Phone %s unlinked.\n", phone)

	case "token":
		if len(args) != 2 {
			return errUsage
		}
		token, err := a.tokens.Issue(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, token)

	case "whois":
		if len(args) != 2 {
			return errUsage
		}
		phone, err := auth.NormalizePhone(args[1])
		if err != nil {
			return err
		}
		store, release, err := a.durable()
		if err != nil {
			return err
		}
		defer release()
		user, err := store.GetUserByPhone(ctx, phone)
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(a.out, "No user with phone %s.\n", phone)
			return nil
		}
		if err != nil {
			return err
		}
		chatID, linked, err := a.ephemeral.TelegramChatID(ctx, phone)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "id:       %s\nhandle:   %s\ncreated:  %s\n", user.ID, user.Handle(), user.CreatedAt.Format(time.RFC3339))
		if linked {
			fmt.Fprintf(a.out, "telegram: %d\n", chatID)
		}

	default:
		return errUsage
	}
	return nil
}
