// Package cleanup tears down everything a deployment created by deleting
// its resource group.
package cleanup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yaegashi/aksmesh/domain/model"
	"github.com/yaegashi/aksmesh/internal/logging"
)

// Deleter is the slice of the Azure adapter cleanup consumes.
type Deleter interface {
	DeleteResourceGroup(ctx context.Context, name string) error
}

// UseCase deletes the session's resource group behind a confirmation gate.
type UseCase struct {
	Session *model.Session
	Azure   Deleter
	// Yes skips the interactive confirmation.
	Yes bool
	In  io.Reader
	Out io.Writer
}

// New builds a cleanup UseCase reading confirmation from stdin.
func New(sess *model.Session, azc Deleter, yes bool) *UseCase {
	return &UseCase{Session: sess, Azure: azc, Yes: yes, In: os.Stdin, Out: os.Stdout}
}

// Execute asks for confirmation unless Yes is set and then issues exactly
// one resource group deletion, waiting for it to finish. A declined
// confirmation deletes nothing and is not an error.
func (u *UseCase) Execute(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	if !u.Yes {
		ok, err := u.confirm()
		if err != nil {
			return err
		}
		if !ok {
			logger.Info(ctx, "cleanup cancelled", "resource_group", u.Session.ResourceGroup)
			fmt.Fprintln(u.Out, "Cleanup cancelled")
			return nil
		}
	}

	logger.Info(ctx, "deleting resource group, this may take several minutes", "resource_group", u.Session.ResourceGroup)
	if err := u.Azure.DeleteResourceGroup(ctx, u.Session.ResourceGroup); err != nil {
		return err
	}
	fmt.Fprintf(u.Out, "Resource group %s deleted\n", u.Session.ResourceGroup)
	return nil
}

func (u *UseCase) confirm() (bool, error) {
	fmt.Fprintf(u.Out, "Delete resource group %q and ALL resources in it? [y/N]: ", u.Session.ResourceGroup)
	line, err := bufio.NewReader(u.In).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
