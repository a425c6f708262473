package command

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxRoomSetSize bounds how many rooms the ranges of one message may expand
// to, overlaps counted.
const MaxRoomSetSize = 1000

// ParseError reports text that matches none of the recognised forms.
type ParseError struct {
	Text   string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("command: parse %q at %d: %s", e.Text, e.Pos, e.Reason)
}

// Parse reads a chat message. Matching is case-insensitive and surrounding
// whitespace is ignored.
func Parse(text string) (Message, error) {
	p := &parser{text: text, src: []rune(strings.ToLower(text))}
	return p.message()
}

type parser struct {
	text string
	src  []rune
	pos  int
}

func (p *parser) fail(reason string) error {
	return &ParseError{Text: p.text, Pos: p.pos, Reason: reason}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpace() int {
	start := p.pos
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

func (p *parser) literal(word string) bool {
	w := []rune(word)
	if len(p.src)-p.pos < len(w) {
		return false
	}
	for i, r := range w {
		if p.src[p.pos+i] != r {
			return false
		}
	}
	p.pos += len(w)
	return true
}

func (p *parser) message() (Message, error) {
	var msg Message
	p.skipSpace()
	if p.peek() == '[' {
		m, err := p.mention()
		if err != nil {
			return Message{}, err
		}
		msg.Mention = &m
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
	}

	cmd, err := p.command()
	if err != nil {
		return Message{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Message{}, p.fail("unexpected trailing input")
	}
	msg.Command = cmd
	return msg, nil
}

func (p *parser) command() (Command, error) {
	switch r := p.peek(); {
	case r == 0:
		return Command{}, p.fail("empty message")
	case r == '+' || r == '-':
		p.pos++
		p.skipSpace()
		if p.peek() == '[' {
			ids, err := p.userMentions()
			if err != nil {
				return Command{}, err
			}
			if len(ids) == 0 {
				return Command{}, p.fail("no user mentions")
			}
			if r == '+' {
				return AddAdmins(ids...), nil
			}
			return RemoveAdmins(ids...), nil
		}
		rooms, err := p.roomSet()
		if err != nil {
			return Command{}, err
		}
		if r == '+' {
			return AddRooms(rooms...), nil
		}
		return RemoveRooms(rooms...), nil
	case isDigit(r):
		rooms, err := p.roomSet()
		if err != nil {
			return Command{}, err
		}
		return SetRooms(rooms...), nil
	}

	switch {
	case p.literal("помощь"):
		return Help(), nil
	case p.literal("список"):
		return ShowList(), nil
	case p.literal("когда"):
		if p.skipSpace() == 0 {
			return Command{}, p.fail("expected room after когда")
		}
		room, err := p.integer()
		if err != nil {
			return Command{}, err
		}
		p.skipSpace()
		if p.peek() == '?' {
			p.pos++
		}
		return GetDutyDate(room), nil
	case p.literal("кто"):
		if p.skipSpace() == 0 || !p.literal("дежурит") || p.skipSpace() == 0 || !p.literal("сегодня") {
			return Command{}, p.fail("expected кто дежурит сегодня")
		}
		p.skipSpace()
		if p.peek() == '?' {
			p.pos++
		}
		return NotifyToday(), nil
	}
	return Command{}, p.fail("unknown command")
}

// mention reads "[<type><id>|label]".
func (p *parser) mention() (Mention, error) {
	if p.peek() != '[' {
		return Mention{}, p.fail("expected [")
	}
	p.pos++
	start := p.pos
	for !p.eof() && p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z' {
		p.pos++
	}
	if p.pos == start {
		return Mention{}, p.fail("expected mention type")
	}
	kind := string(p.src[start:p.pos])

	digits := p.pos
	for !p.eof() && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digits {
		return Mention{}, p.fail("expected mention id")
	}
	id, err := strconv.ParseInt(string(p.src[digits:p.pos]), 10, 64)
	if err != nil {
		return Mention{}, p.fail("mention id out of range")
	}

	if p.peek() != '|' {
		return Mention{}, p.fail("expected |")
	}
	for !p.eof() && p.src[p.pos] != ']' {
		p.pos++
	}
	if p.eof() {
		return Mention{}, p.fail("unterminated mention")
	}
	p.pos++
	return Mention{Type: kind, ID: id}, nil
}

// userMentions reads one or more mentions and keeps the ids of user mentions.
func (p *parser) userMentions() ([]int64, error) {
	var ids []int64
	for {
		m, err := p.mention()
		if err != nil {
			return nil, err
		}
		if m.Type == "id" {
			ids = append(ids, m.ID)
		}

		save := p.pos
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if p.peek() != '[' {
			p.pos = save
			return ids, nil
		}
	}
}

func (p *parser) roomSet() ([]int, error) {
	seen := make(map[int]struct{})
	expanded := 0
	for {
		start := p.pos
		lo, hi, err := p.subset()
		if err != nil {
			return nil, err
		}
		expanded += hi - lo + 1
		if expanded > MaxRoomSetSize {
			p.pos = start
			return nil, p.fail(fmt.Sprintf("more than %d rooms", MaxRoomSetSize))
		}
		for room := lo; room <= hi; room++ {
			seen[room] = struct{}{}
		}

		save := p.pos
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
		}
		if !isDigit(p.peek()) {
			p.pos = save
			break
		}
	}

	rooms := make([]int, 0, len(seen))
	for room := range seen {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (p *parser) subset() (int, int, error) {
	lo, err := p.integer()
	if err != nil {
		return 0, 0, err
	}
	save := p.pos
	p.skipSpace()
	if p.peek() != '-' {
		p.pos = save
		return lo, lo, nil
	}
	p.pos++
	p.skipSpace()
	hi, err := p.integer()
	if err != nil {
		return 0, 0, err
	}
	if lo > hi {
		return 0, 0, p.fail(fmt.Sprintf("descending range %d-%d", lo, hi))
	}
	return lo, hi, nil
}

func (p *parser) integer() (int, error) {
	start := p.pos
	for !p.eof() && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return 0, p.fail("expected number")
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil {
		p.pos = start
		return 0, p.fail("number out of range")
	}
	return n, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
