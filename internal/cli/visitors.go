package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smartstay/internal/client"
	"github.com/iliyamo/smartstay/internal/model"
)

func newVisitorsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "visitors",
		Aliases: []string{"visitor", "v"},
		Short:   "Register, review and check visitors in and out",
	}
	cmd.AddCommand(
		newVisitorRegisterCommand(opts),
		newVisitorMineCommand(opts),
		newVisitorListCommand(opts, "pending", "List visitors awaiting approval", (*client.Client).PendingVisitors),
		newVisitorListCommand(opts, "active", "List approved and checked-in visitors", (*client.Client).ActiveVisitors),
		newVisitorAllCommand(opts),
		newVisitorShowCommand(opts),
		newVisitorApproveCommand(opts),
		newVisitorRejectCommand(opts),
		newVisitorActionCommand(opts, "cancel", "Cancel one of your visitors", (*client.Client).CancelVisitor),
		newVisitorActionCommand(opts, "check-in", "Check a visitor in at the gate", (*client.Client).CheckInVisitor),
		newVisitorActionCommand(opts, "check-out", "Check a visitor out at the gate", (*client.Client).CheckOutVisitor),
		newVisitorVerifyCommand(opts),
	)
	return cmd
}

func printVisitors(opts *RootOptions, cmd *cobra.Command, vs []*model.Visitor) error {
	return opts.render(cmd, vs, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tSTATUS\tVISITOR\tPHONE\tDATE\tROOM\tSTUDENT")
		for _, v := range vs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.VisitorName, v.VisitorPhone,
				v.ExpectedDate, orDash(v.RoomNumber), v.StudentID)
		}
	})
}

func printVisitor(opts *RootOptions, cmd *cobra.Command, v *model.Visitor) error {
	return opts.render(cmd, v, func(w io.Writer) {
		fmt.Fprintf(w, "id:\t%d\n", v.ID)
		fmt.Fprintf(w, "status:\t%s\n", v.Status)
		fmt.Fprintf(w, "visitor:\t%s (%s)\n", v.VisitorName, v.VisitorPhone)
		fmt.Fprintf(w, "purpose:\t%s\n", v.Purpose)
		fmt.Fprintf(w, "date:\t%s\n", v.ExpectedDate)
		fmt.Fprintf(w, "room:\t%s\n", orDash(v.RoomNumber))
		if v.QRCode != nil {
			fmt.Fprintf(w, "pass:\t%s\n", *v.QRCode)
		}
		if v.AdminRemarks != nil {
			fmt.Fprintf(w, "remarks:\t%s\n", *v.AdminRemarks)
		}
	})
}

func newVisitorRegisterCommand(opts *RootOptions) *cobra.Command {
	var in model.VisitorInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a visitor for the calling student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.client().RegisterVisitor(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
	cmd.Flags().StringVar(&in.VisitorName, "name", "", "visitor name")
	cmd.Flags().StringVar(&in.VisitorPhone, "phone", "", "ten digit phone number")
	cmd.Flags().StringVar(&in.VisitorRelation, "relation", "", "relation to the student")
	cmd.Flags().StringVar(&in.Purpose, "purpose", "", "purpose of the visit")
	cmd.Flags().StringVar(&in.ExpectedDate, "date", "", "visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.ExpectedTimeIn, "time-in", "", "expected arrival (HH:MM)")
	cmd.Flags().StringVar(&in.ExpectedTimeOut, "time-out", "", "expected departure (HH:MM)")
	return cmd
}

func newVisitorMineCommand(opts *RootOptions) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your visitors that are still active, or your history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, err := opts.client().MyVisitors(cmd.Context())
			if err != nil {
				return err
			}
			active, past := client.PartitionVisitors(vs)
			if history {
				return printVisitors(opts, cmd, past)
			}
			return printVisitors(opts, cmd, active)
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "show finished visits instead of active ones")
	return cmd
}

type visitorLister func(*client.Client, context.Context) ([]*model.Visitor, error)

func newVisitorListCommand(opts *RootOptions, use, short string, list visitorLister) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, err := list(opts.client(), cmd.Context())
			if err != nil {
				return err
			}
			return printVisitors(opts, cmd, vs)
		},
	}
}

func newVisitorAllCommand(opts *RootOptions) *cobra.Command {
	var (
		f      model.VisitorFilter
		status string
	)
	cmd := &cobra.Command{
		Use:   "all",
		Short: "List visitors with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = model.VisitorStatus(status)
			vs, err := opts.client().AllVisitors(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printVisitors(opts, cmd, vs)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "visitor status")
	cmd.Flags().StringVar(&f.StartDate, "from", "", "earliest visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.EndDate, "to", "", "latest visit date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.StudentID, "student", "", "student id")
	cmd.Flags().StringVar(&f.StudentEmail, "email", "", "student email")
	return cmd
}

func newVisitorShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one visitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := opts.client().GetVisitor(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
}

func newVisitorApproveCommand(opts *RootOptions) *cobra.Command {
	var remarks string
	cmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending visitor and issue the gate pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var r *string
			if cmd.Flags().Changed("remarks") {
				r = &remarks
			}
			v, err := opts.client().ApproveVisitor(cmd.Context(), id, r)
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
	cmd.Flags().StringVar(&remarks, "remarks", "", "note for the student")
	return cmd
}

func newVisitorRejectCommand(opts *RootOptions) *cobra.Command {
	var remarks string
	cmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending visitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := opts.client().RejectVisitor(cmd.Context(), id, remarks)
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
	cmd.Flags().StringVar(&remarks, "remarks", "", "reason for the rejection (required)")
	return cmd
}

type visitorAction func(*client.Client, context.Context, uint64) (*model.Visitor, error)

func newVisitorActionCommand(opts *RootOptions, use, short string, act visitorAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := act(opts.client(), cmd.Context(), id)
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
}

func newVisitorVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify PASS",
		Short: "Look up the visitor holding a gate pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.client().VerifyPass(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printVisitor(opts, cmd, v)
		},
	}
}
