// Command createadmin registers a verified administrator account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"coffeeshop/config"
	"coffeeshop/internal/entity"
	"coffeeshop/internal/migrations"
	"coffeeshop/internal/repository"
	"coffeeshop/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type adminCreator interface {
	CreateAdmin(ctx context.Context, email string, password string) (*entity.User, error)
}

func main() {
	email := flag.String("email", "", "administrator email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel)

	db, err := config.ConnectionDb(cfg)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("database handle unavailable")
	}
	defer sqlDB.Close()

	ctx := context.Background()
	if err := migrations.Up(ctx, sqlDB); err != nil {
		logger.WithError(err).Fatal("migrations failed")
	}

	users := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewSecurityLogRepository(db),
		service.BcryptPasswordHasher{},
		logger,
	)
	if err := run(ctx, users, *email, os.Stdout); err != nil {
		logger.WithError(err).Fatal("admin not created")
	}
}

func run(ctx context.Context, users adminCreator, email string, w io.Writer) error {
	if email == "" {
		return errors.New("-email is required")
	}

	password, err := promptPassword(w, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(w, "Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}

	user, err := users.CreateAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "admin %s created with id %s\n", user.Email, user.ID)
	return err
}

func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
