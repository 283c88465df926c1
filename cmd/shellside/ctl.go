package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/b/shellside/pkg/control"
	"github.com/b/shellside/pkg/paths"
)

var (
	ctlResizing  bool
	ctlForce     bool
	ctlTarget    string
	ctlNoNewline bool
	ctlJSON      bool
)

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running shellside over its socket",
}

var ctlToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Collapse or expand the sidebar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return ctlRequest(cmd, control.MsgSidebarToggle, nil)
	},
}

var ctlWidthCmd = &cobra.Command{
	Use:   "width N",
	Short: "Set the sidebar width of the current view, in width units",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("width must be a number: %w", err)
		}
		return ctlRequest(cmd, control.MsgSidebarWidth, control.WidthPayload{Width: w, Resizing: ctlResizing})
	},
}

var ctlViewCmd = &cobra.Command{
	Use:   "view NAME",
	Short: "Switch the sidebar view (profiles, files)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctlRequest(cmd, control.MsgViewSwitch, control.ViewPayload{View: args[0], Force: ctlForce})
	},
}

var ctlReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read terminal settings and rebind the context menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return ctlRequest(cmd, control.MsgMenuReload, nil)
	},
}

var ctlSendCmd = &cobra.Command{
	Use:   "send TEXT...",
	Short: "Type text into the active terminal or a tmux pane",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if !ctlNoNewline {
			text += "\r"
		}
		return ctlRequest(cmd, control.MsgShellSend, control.SendPayload{Session: ctlTarget, Text: text})
	},
}

var ctlStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the sidebar and context menu state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := control.NewClient(paths.SocketPath(sessionID)).State(cmd.Context())
		if err != nil {
			return err
		}
		return printState(st)
	},
}

func init() {
	ctlWidthCmd.Flags().BoolVar(&ctlResizing, "resizing", false, "debounce the write as during a drag")
	ctlViewCmd.Flags().BoolVar(&ctlForce, "force", false, "re-run the switch even if the view is current")
	ctlSendCmd.Flags().StringVarP(&ctlTarget, "target", "t", "", "session id or tmux pane id (default active session)")
	ctlSendCmd.Flags().BoolVarP(&ctlNoNewline, "no-newline", "n", false, "do not press enter after the text")
	ctlCmd.PersistentFlags().BoolVar(&ctlJSON, "json", false, "print state as JSON")

	ctlCmd.AddCommand(ctlToggleCmd, ctlWidthCmd, ctlViewCmd, ctlReloadCmd, ctlSendCmd, ctlStateCmd)
	rootCmd.AddCommand(ctlCmd)
}

func ctlRequest(cmd *cobra.Command, t control.MessageType, payload any) error {
	resp, err := control.NewClient(paths.SocketPath(sessionID)).Request(cmd.Context(), t, payload)
	if err != nil {
		return err
	}
	var st control.StatePayload
	if err := resp.Decode(&st); err != nil {
		return nil
	}
	return printState(st)
}

func printState(st control.StatePayload) error {
	if ctlJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	collapsed := "expanded"
	if st.Collapsed {
		collapsed = "collapsed"
	}
	fmt.Printf("sidebar:  %s, view %s, width %d (profiles %d, files %d)\n",
		collapsed, st.View, st.Width, st.ProfilesWidth, st.FilesWidth)
	bound := "unbound"
	if st.MenuBound {
		bound = "bound"
	}
	fmt.Printf("menu:     %s, %s\n", st.MenuMode, bound)
	fmt.Printf("sessions: %d\n", st.Sessions)
	return nil
}
