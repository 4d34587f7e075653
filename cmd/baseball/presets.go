package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"numberbaseball/internal/settings"
)

type PresetsCmd struct {
	Settings string `default:"settings.hcl" type:"path" help:"HCL settings file"`
}

func (c *PresetsCmd) Run() error {
	st, err := settings.Load(c.Settings)
	if err != nil {
		return err
	}
	return listPresets(os.Stdout, st)
}

func listPresets(w io.Writer, st *settings.Settings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIGITS\tREPEATS\tATTEMPTS\tTIME\tDESCRIPTION")
	for _, p := range st.Presets() {
		c := p.Config.Candidate()
		attempts, time := "∞", "∞"
		if !c.UnlimitedAttempts {
			attempts = fmt.Sprint(c.MaxAttempts)
		}
		if !c.UnlimitedTime {
			time = fmt.Sprintf("%ds", c.TimeLimitSeconds)
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%s\t%s\t%s\n", p.Name, c.SequenceLength, c.AllowDuplicates, attempts, time, p.Description)
	}
	return tw.Flush()
}
