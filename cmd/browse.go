package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/app/tui"
)

var browseCreds credentialFlags

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog and manage the cart in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// the screen belongs to the UI
		log = zap.NewNop()

		ctx := cmd.Context()
		sf, note, err := newStorefront(ctx, browseCreds)
		if err != nil {
			printNotice(cmd.ErrOrStderr(), note.Message)
			return err
		}
		defer sf.Close()
		if note != nil {
			sf.Notify(*note)
		}

		program := tea.NewProgram(tui.New(ctx, sf), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = program.Run()
		return err
	},
}

func init() {
	browseCreds.register(browseCmd)
}
