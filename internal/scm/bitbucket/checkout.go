package bitbucket

import (
	"fmt"
	"strings"

	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

// checkoutCommandName is the step name the caller expects for the generated
// checkout command.
const checkoutCommandName = "sd-checkout-code"

// GetCheckoutCommand assembles the shell command a build runs to obtain the
// source tree: configure the checkout identity, clone the branch, then pin
// the workspace to the triggering commit. PR builds fetch the source branch
// and merge the PR head instead of resetting.
func (s *SCM) GetCheckoutCommand(args scm.CheckoutArgs) (*scm.Command, error) {
	if args.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: empty checkout url", ErrInvalidCheckoutURL)
	}

	branch := args.Branch
	if branch == "" {
		branch = defaultBranch
	}

	steps := []string{
		fmt.Sprintf("export SCM_URL=%s", args.CheckoutURL),
		fmt.Sprintf("git config --global user.name %q", s.config.Username),
		fmt.Sprintf("git config --global user.email %q", s.config.Email),
		fmt.Sprintf("git clone --quiet --progress --branch %s $SCM_URL $SD_SOURCE_DIR", branch),
		"cd $SD_SOURCE_DIR",
	}

	if args.PRRef != "" {
		steps = append(steps,
			fmt.Sprintf("git fetch origin %s", args.PRRef),
			fmt.Sprintf("git merge --no-edit %s", args.SHA),
		)
	} else if args.SHA != "" {
		steps = append(steps, fmt.Sprintf("git reset --hard %s", args.SHA))
	}

	return &scm.Command{
		Name:    checkoutCommandName,
		Command: strings.Join(steps, " && "),
	}, nil
}
