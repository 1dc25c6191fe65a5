package console

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/timzifer/ringqueue"
)

type command struct {
	usage   string
	mutates bool
	run     func(it *Interpreter, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":      {usage: "new", mutates: true, run: (*Interpreter).cmdNew},
		"free":     {usage: "free", mutates: true, run: (*Interpreter).cmdFree},
		"prev":     {usage: "prev", run: (*Interpreter).cmdPrev},
		"next":     {usage: "next", run: (*Interpreter).cmdNext},
		"ih":       {usage: "ih <str> [n]", mutates: true, run: insertCommand(true)},
		"it":       {usage: "it <str> [n]", mutates: true, run: insertCommand(false)},
		"rh":       {usage: "rh [expected]", mutates: true, run: removeCommand(true)},
		"rt":       {usage: "rt [expected]", mutates: true, run: removeCommand(false)},
		"size":     {usage: "size", run: (*Interpreter).cmdSize},
		"show":     {usage: "show", run: (*Interpreter).cmdShow},
		"dm":       {usage: "dm", mutates: true, run: (*Interpreter).cmdDeleteMid},
		"dedup":    {usage: "dedup", mutates: true, run: (*Interpreter).cmdDedup},
		"swap":     {usage: "swap", mutates: true, run: (*Interpreter).cmdSwap},
		"reverse":  {usage: "reverse", mutates: true, run: (*Interpreter).cmdReverse},
		"reverseK": {usage: "reverseK <k>", mutates: true, run: (*Interpreter).cmdReverseK},
		"sort":     {usage: "sort [desc]", mutates: true, run: (*Interpreter).cmdSort},
		"ascend":   {usage: "ascend", mutates: true, run: filterCommand(true)},
		"descend":  {usage: "descend", mutates: true, run: filterCommand(false)},
		"merge":    {usage: "merge [desc]", mutates: true, run: (*Interpreter).cmdMerge},
		"option":   {usage: "option fail|length|verify <value>", run: (*Interpreter).cmdOption},
		"leaks":    {usage: "leaks", run: (*Interpreter).cmdLeaks},
		"help":     {usage: "help", run: (*Interpreter).cmdHelp},
	}
}

func (it *Interpreter) selected() (*ringqueue.Context, error) {
	c := it.Current()
	if c == nil {
		return nil, ErrNoQueue
	}
	return c, nil
}

func (it *Interpreter) printQueue(c *ringqueue.Context) {
	values := c.Queue.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	fmt.Fprintf(it.out, "q[%d] = [%s]\n", c.ID, strings.Join(parts, " "))
}

func noArgs(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: takes no arguments", ErrUsage)
	}
	return nil
}

func descending(args []string) (bool, error) {
	switch {
	case len(args) == 0:
		return false, nil
	case len(args) == 1 && (args[0] == "desc" || args[0] == "1"):
		return true, nil
	case len(args) == 1 && (args[0] == "asc" || args[0] == "0"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected desc or asc", ErrUsage)
	}
}

func (it *Interpreter) cmdNew(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}

	q := ringqueue.New(ringqueue.WithMetrics(it.metrics), ringqueue.WithFaults(it.fault))
	if q == nil {
		return fmt.Errorf("%w: queue allocation", ErrFailed)
	}

	c := &ringqueue.Context{Queue: q, ID: it.nextID}
	it.nextID++
	it.chain = append(it.chain, c)
	it.current = len(it.chain) - 1
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdFree(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	c.Queue.Free()
	it.chain = append(it.chain[:it.current], it.chain[it.current+1:]...)
	if it.current >= len(it.chain) {
		it.current = len(it.chain) - 1
	}
	fmt.Fprintf(it.out, "freed q[%d]\n", c.ID)
	return nil
}

func (it *Interpreter) cmdPrev(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	if len(it.chain) == 0 {
		return ErrNoQueue
	}
	if it.current > 0 {
		it.current--
	}
	it.printQueue(it.chain[it.current])
	return nil
}

func (it *Interpreter) cmdNext(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	if len(it.chain) == 0 {
		return ErrNoQueue
	}
	if it.current < len(it.chain)-1 {
		it.current++
	}
	it.printQueue(it.chain[it.current])
	return nil
}

func insertCommand(head bool) func(*Interpreter, []string) error {
	return func(it *Interpreter, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("%w: expected <str> [n]", ErrUsage)
		}
		repeat := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: invalid count %q", ErrUsage, args[1])
			}
			repeat = n
		}

		c, err := it.selected()
		if err != nil {
			return err
		}

		value := []byte(args[0])
		for i := 0; i < repeat; i++ {
			var ok bool
			if head {
				ok = c.Queue.InsertHead(value)
			} else {
				ok = c.Queue.InsertTail(value)
			}
			if !ok {
				it.printQueue(c)
				return fmt.Errorf("%w: insertion of %q", ErrFailed, args[0])
			}
			c.Size++
		}
		it.printQueue(c)
		return nil
	}
}

func removeCommand(head bool) func(*Interpreter, []string) error {
	return func(it *Interpreter, args []string) error {
		if len(args) > 1 {
			return fmt.Errorf("%w: expected [expected]", ErrUsage)
		}
		c, err := it.selected()
		if err != nil {
			return err
		}

		buf := make([]byte, it.bufferSize)
		var e *ringqueue.Element
		if head {
			e = c.Queue.RemoveHead(buf)
		} else {
			e = c.Queue.RemoveTail(buf)
		}
		if e == nil {
			return fmt.Errorf("%w: queue is empty", ErrFailed)
		}
		e.Release()
		c.Size--

		removed := buf
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			removed = buf[:i]
		}
		fmt.Fprintf(it.out, "Removed %s from queue\n", removed)
		it.printQueue(c)

		if len(args) == 1 && string(removed) != args[0] {
			return fmt.Errorf("%w: removed %q, expected %q", ErrMismatch, removed, args[0])
		}
		return nil
	}
}

func (it *Interpreter) cmdSize(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	n := c.Queue.Size()
	fmt.Fprintf(it.out, "Queue size = %d\n", n)
	if n != c.Size {
		return fmt.Errorf("%w: computed size %d, expected %d", ErrMismatch, n, c.Size)
	}
	return nil
}

func (it *Interpreter) cmdShow(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	if len(it.chain) == 0 {
		fmt.Fprintln(it.out, "No queues")
		return nil
	}
	for i, c := range it.chain {
		if i == it.current {
			fmt.Fprint(it.out, "* ")
		} else {
			fmt.Fprint(it.out, "  ")
		}
		it.printQueue(c)
	}
	return nil
}

func (it *Interpreter) cmdDeleteMid(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	if !c.Queue.DeleteMid() {
		return fmt.Errorf("%w: queue is empty", ErrFailed)
	}
	c.Size--
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdDedup(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	if !c.Queue.DeleteDup() {
		return ErrFailed
	}
	c.Size = c.Queue.Size()
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdSwap(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	c.Queue.Swap()
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdReverse(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	c.Queue.Reverse()
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdReverseK(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected <k>", ErrUsage)
	}
	k, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: invalid k %q", ErrUsage, args[0])
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	c.Queue.ReverseK(k)
	it.printQueue(c)
	return nil
}

func (it *Interpreter) cmdSort(args []string) error {
	descend, err := descending(args)
	if err != nil {
		return err
	}
	c, err := it.selected()
	if err != nil {
		return err
	}

	c.Queue.Sort(descend)
	it.printQueue(c)
	return nil
}

func filterCommand(ascend bool) func(*Interpreter, []string) error {
	return func(it *Interpreter, args []string) error {
		if err := noArgs(args); err != nil {
			return err
		}
		c, err := it.selected()
		if err != nil {
			return err
		}

		if ascend {
			c.Size = c.Queue.Ascend()
		} else {
			c.Size = c.Queue.Descend()
		}
		fmt.Fprintf(it.out, "Queue size = %d\n", c.Size)
		it.printQueue(c)
		return nil
	}
}

// cmdMerge merges every queue of the chain into the first one and frees the
// drained queues.
func (it *Interpreter) cmdMerge(args []string) error {
	descend, err := descending(args)
	if err != nil {
		return err
	}
	if len(it.chain) == 0 {
		return ErrNoQueue
	}

	total := ringqueue.Merge(it.chain, descend)

	target := it.chain[0]
	for _, c := range it.chain[1:] {
		c.Queue.Free()
	}
	it.chain = it.chain[:1]
	it.current = 0

	fmt.Fprintf(it.out, "Queue size = %d\n", total)
	it.printQueue(target)
	return nil
}

func (it *Interpreter) cmdOption(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected <name> <value>", ErrUsage)
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: invalid value %q", ErrUsage, args[1])
	}

	switch args[0] {
	case "fail":
		if value < 0 || value > 100 {
			return fmt.Errorf("%w: fail rate must be within 0..100", ErrUsage)
		}
		it.failRate = value
	case "length":
		if value < 1 {
			return fmt.Errorf("%w: length must be positive", ErrUsage)
		}
		it.bufferSize = value
	case "verify":
		it.verify = value != 0
	default:
		return fmt.Errorf("%w: unknown option %q", ErrUsage, args[0])
	}

	it.log.Info("option changed", "name", args[0], "value", value)
	return nil
}

func (it *Interpreter) cmdLeaks(args []string) error {
	if err := noArgs(args); err != nil {
		return err
	}

	n := it.metrics.Outstanding()
	fmt.Fprintf(it.out, "%d blocks outstanding\n", n)
	if len(it.chain) == 0 && n != 0 {
		return fmt.Errorf("%w: %d", ErrLeak, n)
	}
	return nil
}

func (it *Interpreter) cmdHelp(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(it.out, "  %s\n", commands[name].usage)
	}
	return nil
}
