// Command mailterm is a line-oriented mail user agent: a REPL over a
// base directory of mailboxes, styled after cmd/spilld's flag parsing
// and logging conventions.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spilled-ink/mailterm/email"
	"github.com/spilled-ink/mailterm/internal/merr"
	"github.com/spilled-ink/mailterm/internal/render"
	"github.com/spilled-ink/mailterm/mua"
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	baseDir := flag.Arg(0)
	if baseDir == "" {
		log.Fatal("mailterm: usage: mailterm <base-dir>")
	}

	m, err := mua.New(baseDir)
	if err != nil {
		log.Fatalf("mailterm: %v", err)
	}
	defer m.Close()

	log.Printf("mailterm, base directory %s", baseDir)

	r := &repl{m: m, in: bufio.NewScanner(os.Stdin), out: os.Stdout}
	r.run()
}

type repl struct {
	m   *mua.Mua
	in  *bufio.Scanner
	out *os.File
}

func (r *repl) run() {
	fmt.Fprint(r.out, r.m.Prompt())
	for r.in.Scan() {
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			fmt.Fprint(r.out, r.m.Prompt())
			continue
		}
		if line == "EXIT" {
			return
		}
		if err := r.dispatch(line); err != nil {
			fmt.Fprintln(r.out, "Unknown command")
		}
		fmt.Fprint(r.out, r.m.Prompt())
	}
}

func (r *repl) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch {
	case cmd == "#":
		return nil
	case cmd == "LSM":
		return r.lsm()
	case cmd == "MBOX":
		return r.mbox(args)
	case cmd == "LSE":
		return r.lse()
	case cmd == "READ":
		return r.read(args)
	case cmd == "COMPOSE":
		return r.compose()
	case cmd == "DELETE":
		return r.delete(args)
	default:
		return errUnknownCommand
	}
}

var errUnknownCommand = errors.New("unknown command")

func (r *repl) lsm() error {
	for i, mb := range r.m.Mailboxes() {
		name := mb.Name()
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintf(r.out, "%d. %s (%d)\n", i+1, name, mb.Count())
	}
	return nil
}

func (r *repl) mbox(args []string) error {
	if len(args) != 1 {
		return errUnknownCommand
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUnknownCommand
	}
	if err := r.m.Select(n); err != nil {
		return err
	}
	return nil
}

func (r *repl) lse() error {
	cur, err := r.m.Current()
	if err != nil {
		return err
	}
	for i := 1; i <= cur.Count(); i++ {
		size, err := cur.EncodedSize(i)
		if err != nil {
			return err
		}
		seen, err := cur.Seen(i)
		if err != nil {
			return err
		}
		msg, err := cur.Peek(i)
		if err != nil {
			return err
		}
		subject, _ := msg.Subject()

		mark := " "
		if seen {
			mark = "R"
		}
		fmt.Fprintf(r.out, "%d. [%s] %-40s %d bytes\n", i, mark, subject, size)
	}
	return nil
}

func (r *repl) read(args []string) error {
	if len(args) != 1 {
		return errUnknownCommand
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUnknownCommand
	}
	msg, err := r.m.ReadMessage(n)
	if err != nil {
		return err
	}
	r.printMessage(msg)
	return nil
}

func (r *repl) printMessage(msg *email.Message) {
	from, _ := msg.Sender()
	to, _ := msg.Recipients()
	subject, _ := msg.Subject()
	date, _ := msg.Date()

	toStrs := make([]string, len(to))
	for i, a := range to {
		toStrs[i] = a.String()
	}

	fmt.Fprintf(r.out, "From: %s\n", from.String())
	fmt.Fprintf(r.out, "To: %s\n", strings.Join(toStrs, ", "))
	fmt.Fprintf(r.out, "Subject: %s\n", subject)
	fmt.Fprintf(r.out, "Date: %s\n\n", date.Format("Mon, 2 Jan 2006 15:04:05 -0700"))

	r.printBody(msg)
}

// printBody shows a singlepart message's body, rendered to plain text
// when the part is text/html. For a multipart message it shows the
// text part, followed by a plain-text rendering of its HTML
// alternative.
func (r *repl) printBody(msg *email.Message) {
	if !msg.IsMultipart() {
		part := msg.Parts[0]
		for _, h := range part.Headers {
			if ct, ok := h.(email.ContentType); ok && ct.MediaType == "text/html" {
				if rendered, err := render.PlainText(part.Body); err == nil {
					fmt.Fprintln(r.out, rendered)
					return
				}
			}
		}
		fmt.Fprintln(r.out, part.Body)
		return
	}
	text := msg.Parts[1]
	fmt.Fprintln(r.out, text.Body)

	html := msg.Parts[2]
	rendered, err := render.PlainText(html.Body)
	if err == nil {
		fmt.Fprintln(r.out, "--- html alternative, rendered ---")
		fmt.Fprintln(r.out, rendered)
	}
}

func (r *repl) compose() error {
	from, err := r.prompt("From: ")
	if err != nil {
		return err
	}
	to, err := r.prompt("To: ")
	if err != nil {
		return err
	}
	subject, err := r.prompt("Subject: ")
	if err != nil {
		return err
	}
	body, err := r.prompt("Body: ")
	if err != nil {
		return err
	}

	sender, err := email.ParseAddress(from)
	if err != nil {
		return err
	}
	recipients, err := email.ParseAddressList(to)
	if err != nil {
		return err
	}

	msg, err := email.NewSinglepartText(sender, recipients, subject, time.Now(), body)
	if err != nil {
		return err
	}
	return r.m.SaveMessage(msg)
}

func (r *repl) delete(args []string) error {
	if len(args) != 1 {
		return errUnknownCommand
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errUnknownCommand
	}
	return r.m.DeleteMessage(n)
}

func (r *repl) prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		return "", merr.ErrIO
	}
	return strings.TrimSpace(r.in.Text()), nil
}
