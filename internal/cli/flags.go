package cli

import (
	"flag"
	"strconv"
	"strings"
)

// Counter is a flag that counts its occurrences: -v -v gives 2.
type Counter int

func (c *Counter) String() string {
	if c == nil {
		return "0"
	}
	return strconv.Itoa(int(*c))
}

// Set accepts an explicit count as well, so -v=3 and --verbosity 2 work.
func (c *Counter) Set(raw string) error {
	if raw == "" || raw == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*c = Counter(n)
	return nil
}

func (c *Counter) IsBoolFlag() bool {
	return true
}

// Step returns a flag that adds n to c each time it is given.
func (c *Counter) Step(n int) flag.Value {
	return &step{c: c, n: n}
}

type step struct {
	c *Counter
	n int
}

func (s *step) String() string {
	return ""
}

func (s *step) Set(string) error {
	*s.c += Counter(s.n)
	return nil
}

func (s *step) IsBoolFlag() bool {
	return true
}

// List collects a repeatable flag. Each value may itself be a comma
// separated list.
type List []string

func (l *List) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *List) Set(raw string) error {
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}
