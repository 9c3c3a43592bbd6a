// Package seed bootstraps the first admin account from the command line.
package seed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
)

// AdminEnsurer creates or promotes the admin account.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error)
}

// Input is what the operator supplied up front; empty fields are prompted for.
type Input struct {
	Name     string
	Email    string
	Password string
}

var ErrPasswordMismatch = errors.New("passwords do not match")

// Run completes in interactively and calls EnsureAdmin.
func Run(ctx context.Context, e AdminEnsurer, in Input, reader *bufio.Reader, w io.Writer) (*models.User, error) {
	var err error
	if in.Email == "" {
		if in.Email, err = GetSimpleText(reader, "Admin e-mail", w); err != nil {
			return nil, err
		}
	}
	if in.Name == "" {
		if in.Name, err = GetSimpleText(reader, "Admin name", w); err != nil {
			return nil, err
		}
	}
	if in.Password == "" {
		pw, err := GetPassword(w, "Admin password: ")
		if err != nil {
			return nil, err
		}
		again, err := GetPassword(w, "Repeat password: ")
		if err != nil {
			return nil, err
		}
		match := bytes.Equal(pw, again)
		if match {
			in.Password = string(pw)
		}
		common.WipeByteArray(pw)
		common.WipeByteArray(again)
		if !match {
			return nil, ErrPasswordMismatch
		}
	}

	u, err := e.EnsureAdmin(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}
	return u, nil
}
