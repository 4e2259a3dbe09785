package main

import (
	"fmt"
	"io"

	"github.com/taoyao-code/molecube/internal/protocol/molecube"
)

// printResult 按命令类型输出应答
func printResult(w io.Writer, res molecube.Result) error {
	switch r := res.(type) {
	case molecube.AckReply:
		if r.OK() {
			_, err := fmt.Fprintf(w, "%s: ok\n", r.Cmd)
			return err
		}
		_, err := fmt.Fprintf(w, "%s: rejected (% x)\n", r.Cmd, r.Raw)
		return err
	case molecube.StartupReply:
		_, err := fmt.Fprintln(w, r.Script)
		return err
	case molecube.NamesReply:
		entries, err := r.Entries()
		if err != nil {
			return err
		}
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%d: %s\n", e.ID, e.Name); err != nil {
				return err
			}
		}
		return nil
	case molecube.OverrideTTLReply:
		_, err := fmt.Fprintf(w, "lo: %#010x; hi: %#010x\n", r.Lo, r.Hi)
		return err
	case molecube.SetTTLReply:
		_, err := fmt.Fprintf(w, "ttl: %#010x\n", r.Value)
		return err
	case molecube.ClockReply:
		_, err := fmt.Fprintf(w, "clock: %d\n", r.Value)
		return err
	case molecube.DDSReply:
		return printDDS(w, r)
	case molecube.StateIDReply:
		_, err := fmt.Fprintf(w, "state: %d; server: %d\n", r.State, r.Server)
		return err
	default:
		return fmt.Errorf("unexpected result %T", res)
	}
}

func printDDS(w io.Writer, r molecube.DDSReply) error {
	var err error
	switch {
	case r.Cmd == molecube.CmdGetOverrideDDS:
		_, err = fmt.Fprintf(w, "%d DDS overrides\n", len(r.Entries))
	case r.Cmd == molecube.CmdGetDDS && r.Groups > 0:
		_, err = fmt.Fprintf(w, "%d x 3 channels\n", r.Groups)
	case r.Cmd == molecube.CmdGetDDS:
		_, err = fmt.Fprintf(w, "%d channels\n", len(r.Entries))
	}
	if err != nil {
		return err
	}
	for _, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "  %s\n", e); err != nil {
			return err
		}
	}
	return nil
}
