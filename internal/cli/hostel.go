package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iliyamo/smartstay/internal/model"
)

func newRoomsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rooms",
		Aliases: []string{"room", "r"},
		Short:   "Room occupancy",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := opts.client().Rooms(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printRooms(opts, cmd, rooms)
		},
	}
	list.Flags().StringVar(&status, "status", "", "vacant, occupied or full")

	show := &cobra.Command{
		Use:   "show NUMBER",
		Short: "Show a room and its occupants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client().Room(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRoom(opts, cmd, r)
		},
	}

	var student, name string
	allocate := &cobra.Command{
		Use:   "allocate NUMBER",
		Short: "Place a student in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client().AllocateRoom(cmd.Context(), args[0], student, name)
			if err != nil {
				return err
			}
			return printRoom(opts, cmd, r)
		},
	}
	allocate.Flags().StringVar(&student, "student", "", "student id")
	allocate.Flags().StringVar(&name, "name", "", "student name")

	deallocate := &cobra.Command{
		Use:   "deallocate NUMBER",
		Short: "Remove a student from a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.client().DeallocateRoom(cmd.Context(), args[0], student)
			if err != nil {
				return err
			}
			return printRoom(opts, cmd, r)
		},
	}
	deallocate.Flags().StringVar(&student, "student", "", "student id")

	del := &cobra.Command{
		Use:   "delete NUMBER",
		Short: "Delete an empty room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteRoom(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted room %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, allocate, deallocate, del)
	return cmd
}

func printRooms(opts *RootOptions, cmd *cobra.Command, rooms []*model.Room) error {
	return opts.render(cmd, rooms, func(w io.Writer) {
		fmt.Fprintln(w, "ROOM\tSTATUS\tOCCUPANTS\tFREE")
		for _, r := range rooms {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\n", r.Number, r.Status, len(r.Occupants), r.EffectiveCapacity(), r.SpotsLeft())
		}
	})
}

func printRoom(opts *RootOptions, cmd *cobra.Command, r *model.Room) error {
	return opts.render(cmd, r, func(w io.Writer) {
		fmt.Fprintf(w, "room:\t%s\n", r.Number)
		fmt.Fprintf(w, "status:\t%s\n", r.Status)
		fmt.Fprintf(w, "free:\t%d of %d\n", r.SpotsLeft(), r.EffectiveCapacity())
		for _, o := range r.OccupantDetails {
			fmt.Fprintf(w, "occupant:\t%s\t%s\n", o.ID, o.Name)
		}
	})
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search TEXT",
		Short: "Find students by name or roll number and rooms by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := opts.client().Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.render(cmd, res, func(w io.Writer) {
				for _, s := range res.Students {
					fmt.Fprintf(w, "student\t%s\t%s\t%s\t%s\n", s.ID, s.Name, orDash(s.RollNo), orDash(s.Room))
				}
				for _, r := range res.Rooms {
					fmt.Fprintf(w, "room\t%s\t%s\t%d free\n", r.Number, r.Status, r.SpotsLeft)
				}
			})
		},
	}
}

func newFacilitiesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facilities",
		Short: "Hostel facilities and information",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List facilities in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := opts.client().Facilities(cmd.Context())
			if err != nil {
				return err
			}
			return opts.render(cmd, fs, func(w io.Writer) {
				for _, f := range fs {
					fmt.Fprintf(w, "%d\t%s\t%s\n", f.ID, f.Name, f.Description)
				}
			})
		},
	}, &cobra.Command{
		Use:   "info",
		Short: "Show hostel information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.client().HostelInfo(cmd.Context())
			if err != nil {
				return err
			}
			return opts.render(cmd, h, func(w io.Writer) {
				fmt.Fprintf(w, "name:\t%s\n", h.Name)
				fmt.Fprintf(w, "address:\t%s\n", h.Address)
				fmt.Fprintf(w, "warden:\t%s %s\n", h.WardenName, h.WardenPhone)
				fmt.Fprintf(w, "emergency:\t%s\n", h.EmergencyPhone)
			})
		},
	})
	return cmd
}
