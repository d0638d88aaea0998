// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"github.com/xfce-mirror/xfce4-settings/display1"
)

var errLegacyModel = errors.New("not available with the legacy screens model")

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the connected outputs",
	Args:  cobra.NoArgs,
	RunE:  withSession(runList),
}

func runList(_ *cobra.Command, s *session, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if s.legacy != nil {
		fmt.Fprintln(w, "SCREEN\tRESOLUTION\tRATE\tROTATION\tSIZES")
		for i, screen := range s.legacy.Screens {
			var current string
			if screen.Resolution >= 0 && screen.Resolution < len(screen.Sizes) {
				size := screen.Sizes[screen.Resolution]
				current = fmt.Sprintf("%dx%d", size.Width, size.Height)
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%#x\t%d\n", i, current, screen.Rate, screen.Rotation, len(screen.Sizes))
		}
		return nil
	}

	fmt.Fprintln(w, "OUTPUT\tNAME\tSTATUS\tMODE\tPOSITION\tPREFERRED")
	for _, output := range s.randr.Outputs {
		mode := "off"
		if output.Enabled() {
			mode = s.randr.Mode(output.ActiveMode).String()
		}
		preferred := s.randr.Mode(s.randr.PreferredMode(output)).String()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d,%d\t%s\n", output.Name, output.FriendlyName,
			output.Status, mode, output.X, output.Y, preferred)
	}
	if len(s.randr.CloneModes) > 0 {
		fmt.Fprint(w, "\nclone modes:")
		for _, id := range s.randr.CloneModes {
			fmt.Fprint(w, " ", s.randr.Mode(id))
		}
		fmt.Fprintln(w)
	}
	return nil
}

var showAllProfiles bool

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the profiles matching the connected outputs",
	Args:  cobra.NoArgs,
	RunE:  withSession(runProfiles),
}

func runProfiles(_ *cobra.Command, s *session, args []string) error {
	if showAllProfiles {
		profiles := display1.ListAllProfiles(s.channel)
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s\t%s\n", name, profiles[name])
		}
		return nil
	}
	if s.randr == nil {
		return errLegacyModel
	}
	for _, name := range display1.ListProfiles(s.randr.DisplayInfos(), s.channel) {
		fmt.Println(name)
	}
	return nil
}

var profileDisplayName string

var saveCmd = &cobra.Command{
	Use:   "save <profile>",
	Short: "Save the current configuration as a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runSave),
}

func runSave(_ *cobra.Command, s *session, args []string) error {
	id := args[0]
	if s.legacy != nil {
		s.legacy.Save(id, s.channel)
		return nil
	}
	name := profileDisplayName
	if name == "" {
		name = id
	}
	if !display1.ProfileExists(id, s.channel) && !display1.IsProfileNameAvailable(name, s.channel) {
		return fmt.Errorf("profile name %q is already used", name)
	}
	return display1.SaveProfile(s.randr, id, name, s.channel)
}

var applyDirectly bool

var applyCmd = &cobra.Command{
	Use:   "apply <profile>",
	Short: "Apply a profile",
	Long: "Apply a profile. By default the settings daemon is asked to apply it, " +
		"with --direct the outputs are configured by this command.",
	Args: cobra.ExactArgs(1),
	RunE: withSession(runApply),
}

func runApply(_ *cobra.Command, s *session, args []string) error {
	name := args[0]
	if !applyDirectly {
		display1.Apply(name, s.channel)
		return nil
	}
	if s.legacy != nil {
		return display1.ApplyLegacyScheme(s.legacy, name, s.channel)
	}
	return display1.ApplyScheme(s.randr, name, s.channel)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <profile>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runDelete),
}

func runDelete(_ *cobra.Command, s *session, args []string) error {
	if !display1.ProfileExists(args[0], s.channel) {
		return fmt.Errorf("profile %q not found", args[0])
	}
	return display1.DeleteProfile(args[0], s.channel)
}

var setOpts struct {
	on         bool
	off        bool
	primary    bool
	mode       string
	rate       float64
	rotate     int
	reflect    string
	posX, posY int
}

var setCmd = &cobra.Command{
	Use:   "set <output>",
	Short: "Change one output and apply the result",
	Long: "Change one output. The whole configuration is stored as the " +
		"Default scheme which the settings daemon then applies.",
	Args: cobra.ExactArgs(1),
	RunE: withSession(runSet),
}

func addSetFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&setOpts.on, "on", false, "Enable the output with its preferred mode")
	flags.BoolVar(&setOpts.off, "off", false, "Disable the output")
	flags.BoolVar(&setOpts.primary, "primary", false, "Make the output the primary one")
	flags.StringVar(&setOpts.mode, "mode", "", "Resolution, e.g. 1920x1080")
	flags.Float64Var(&setOpts.rate, "rate", 0, "Refresh rate of the mode")
	flags.IntVar(&setOpts.rotate, "rotate", 0, "Rotation in degrees: 0, 90, 180 or 270")
	flags.StringVar(&setOpts.reflect, "reflect", "0", "Reflection: 0, X, Y or XY")
	flags.IntVar(&setOpts.posX, "x", 0, "Horizontal position")
	flags.IntVar(&setOpts.posY, "y", 0, "Vertical position")
}

// outputLayout is the part of the display model the set command edits.
type outputLayout interface {
	GetOutputByName(name string) *display1.Output
	PreferredMode(output *display1.Output) uint32
	HasPrimary() bool
}

func checkPosition(axis string, v int) (int16, error) {
	if v < 0 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%s position %d out of range 0..%d", axis, v, math.MaxInt16)
	}
	return int16(v), nil
}

// configureOutput changes the output called name as the changed flags say.
// Nothing is modified when an error is returned.
func configureOutput(flags *pflag.FlagSet, layout outputLayout, outputs []*display1.Output, name string) error {
	output := layout.GetOutputByName(name)
	if output == nil {
		return fmt.Errorf("output %q is not connected", name)
	}
	if setOpts.on && setOpts.off {
		return errors.New("--on and --off can not be used together")
	}

	activeMode := output.ActiveMode
	if setOpts.off {
		activeMode = 0
	} else if setOpts.on && !output.Enabled() {
		activeMode = layout.PreferredMode(output)
	}

	if flags.Changed("mode") {
		var mode *display1.ModeInfo
		for i, m := range output.Modes {
			if fmt.Sprintf("%dx%d", m.Width, m.Height) != setOpts.mode {
				continue
			}
			if flags.Changed("rate") && fmt.Sprintf("%.2f", m.Rate) != fmt.Sprintf("%.2f", setOpts.rate) {
				continue
			}
			mode = &output.Modes[i]
			break
		}
		if mode == nil {
			return fmt.Errorf("output %s has no mode %s", output.Name, setOpts.mode)
		}
		activeMode = mode.Id
	}

	rotation := output.Rotation
	if flags.Changed("rotate") || flags.Changed("reflect") {
		switch setOpts.rotate {
		case 0, 90, 180, 270:
		default:
			return fmt.Errorf("invalid rotation %d", setOpts.rotate)
		}
		switch setOpts.reflect {
		case "0", "X", "Y", "XY":
		default:
			return fmt.Errorf("invalid reflection %q", setOpts.reflect)
		}
		rotation = display1.Rotation(setOpts.rotate, setOpts.reflect)
		if rotation&output.Rotations != rotation {
			return fmt.Errorf("output %s does not support this rotation", output.Name)
		}
	}

	x, y := output.X, output.Y
	var err error
	if flags.Changed("x") {
		x, err = checkPosition("x", setOpts.posX)
		if err != nil {
			return err
		}
	}
	if flags.Changed("y") {
		y, err = checkPosition("y", setOpts.posY)
		if err != nil {
			return err
		}
	}

	output.ActiveMode = activeMode
	output.Rotation = rotation
	output.X, output.Y = x, y

	if setOpts.primary && layout.HasPrimary() {
		for _, o := range outputs {
			if o == output {
				o.Status = display1.OutputStatusPrimary
			} else {
				o.Status = display1.OutputStatusSecondary
			}
		}
	}
	return nil
}

func runSet(cmd *cobra.Command, s *session, args []string) error {
	if s.randr == nil {
		return errLegacyModel
	}
	err := configureOutput(cmd.Flags(), s.randr, s.randr.Outputs, args[0])
	if err != nil {
		return err
	}

	err = s.channel.ResetProperty(xfconf.JoinPath(display1.DefaultScheme), true)
	if err != nil {
		return err
	}
	display1.SaveAll(s.randr, display1.DefaultScheme, s.channel)
	display1.Apply(display1.DefaultScheme, s.channel)
	return nil
}

func init() {
	profilesCmd.Flags().BoolVarP(&showAllProfiles, "all", "a", false, "List every stored profile with its name")
	saveCmd.Flags().StringVarP(&profileDisplayName, "name", "n", "", "Name shown for the profile")
	applyCmd.Flags().BoolVar(&applyDirectly, "direct", false, "Configure the outputs without the settings daemon")

	addSetFlags(setCmd.Flags())
	setCmd.MarkFlagsMutuallyExclusive("on", "off")

	rootCmd.AddCommand(listCmd, profilesCmd, saveCmd, applyCmd, deleteCmd, setCmd)
}
