package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smartstay/internal/client"
	"github.com/iliyamo/smartstay/internal/model"
)

func newPaymentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"payment", "p"},
		Short:   "Fee requests, payments and receipts",
	}
	cmd.AddCommand(
		newPaymentListCommand(opts),
		newPaymentRequestsCommand(opts),
		newPaymentRequestCommand(opts),
		newPaymentRecordCommand(opts),
		newPaymentPayCommand(opts),
		newPaymentVerifyCommand(opts),
		newPaymentDeleteCommand(opts),
		newPaymentExportCommand(opts),
	)
	return cmd
}

func printPayments(opts *RootOptions, cmd *cobra.Command, ps []client.PaymentRecord) error {
	return opts.render(cmd, ps, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tRECEIPT\tSTUDENT\tAMOUNT\tTYPE\tMETHOD\tPAID")
		for _, p := range ps {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\t%s\n", p.ID, p.ReceiptNumber, p.StudentID, p.Amount,
				p.Type, p.Method, p.PaidAt.Format(time.DateTime))
		}
	})
}

func printRequests(opts *RootOptions, cmd *cobra.Command, rs []client.RequestRecord) error {
	return opts.render(cmd, rs, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tSTATUS\tSTUDENT\tAMOUNT\tTYPE\tDUE\tMETHOD")
		for _, r := range rs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\t%s\n", r.ID, r.Status, r.StudentID, r.Amount,
				r.Type, r.DueDate, orDash(r.Method))
		}
	})
}

func newPaymentListCommand(opts *RootOptions) *cobra.Command {
	var (
		student string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent payments, or one student's payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			var (
				ps  []client.PaymentRecord
				err error
			)
			if student != "" {
				ps, err = c.StudentPayments(cmd.Context(), student)
			} else {
				ps, err = c.RecentPayments(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			return printPayments(opts, cmd, ps)
		},
	}
	cmd.Flags().StringVar(&student, "student", "", "student id")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of recent payments, default set by the server")
	return cmd
}

func newPaymentRequestsCommand(opts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List fee requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := opts.client().PaymentRequests(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printRequests(opts, cmd, rs)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, paid_unverified, verified or overdue")
	return cmd
}

func newPaymentRequestCommand(opts *RootOptions) *cobra.Command {
	var (
		in      model.PaymentRequestInput
		amount  string
		remarks string
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Raise a fee request for a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Amount = json.Number(amount)
			if remarks != "" {
				in.Remarks = &remarks
			}
			r, err := opts.client().CreatePaymentRequest(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printRequests(opts, cmd, []client.RequestRecord{r})
		},
	}
	cmd.Flags().StringVar(&in.StudentID, "student", "", "student id")
	cmd.Flags().StringVar(&in.StudentName, "name", "", "student name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 1500.00")
	cmd.Flags().StringVar(&in.Type, "type", model.PaymentTypeHostelFee, "payment type")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks")
	return cmd
}

func newPaymentRecordCommand(opts *RootOptions) *cobra.Command {
	var (
		in      model.RecordPaymentInput
		amount  string
		remarks string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a payment taken at the office",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Amount = json.Number(amount)
			if remarks != "" {
				in.Remarks = &remarks
			}
			p, err := opts.client().RecordPayment(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printPayments(opts, cmd, []client.PaymentRecord{p})
		},
	}
	cmd.Flags().StringVar(&in.StudentID, "student", "", "student id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 1500.00")
	cmd.Flags().StringVar(&in.Type, "type", model.PaymentTypeHostelFee, "payment type")
	cmd.Flags().StringVar(&in.Method, "method", model.MethodCash, "payment method")
	cmd.Flags().StringVar(&remarks, "remarks", "", "remarks")
	return cmd
}

func newPaymentPayCommand(opts *RootOptions) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Mark one of your fee requests as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := opts.client().PayRequest(cmd.Context(), id, method)
			if err != nil {
				return err
			}
			return printRequests(opts, cmd, []client.RequestRecord{r})
		},
	}
	cmd.Flags().StringVar(&method, "method", model.MethodUPI, "payment method")
	return cmd
}

func newPaymentVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify ID",
		Short: "Verify a paid request and issue its receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := opts.client().VerifyPaymentRequest(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printPayments(opts, cmd, []client.PaymentRecord{p})
		},
	}
}

func newPaymentDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().DeletePayment(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted payment %d\n", id)
			return nil
		},
	}
}

func newPaymentExportCommand(opts *RootOptions) *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download payments in a date range as an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var fromT, toT time.Time
			var err error
			if from != "" {
				if fromT, err = time.Parse(time.DateOnly, from); err != nil {
					return fmt.Errorf("invalid --from %q", from)
				}
			}
			if to != "" {
				if toT, err = time.Parse(time.DateOnly, to); err != nil {
					return fmt.Errorf("invalid --to %q", to)
				}
			}
			data, err := opts.client().ExportPayments(cmd.Context(), fromT, toT)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD), default first of this month")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), default today")
	cmd.Flags().StringVarP(&out, "out", "o", "payments.xlsx", "output file")
	return cmd
}
