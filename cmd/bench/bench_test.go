package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"text/template"
)

func TestApplyCartesian(t *testing.T) {
	var got []string
	applyCartesian(func(args []interface{}) {
		var parts []string
		for _, a := range args {
			parts = append(parts, fmt.Sprint(a))
		}
		got = append(got, strings.Join(parts, "/"))
	}, [][]interface{}{{1, 2}, {"a"}, {0.5, 0.25}})
	want := []string{"1/a/0.5", "1/a/0.25", "2/a/0.5", "2/a/0.25"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("applyCartesian visited %v, want %v", got, want)
	}
}

func TestBench(t *testing.T) {
	exp := &Experiment{Bits: 1024, Divisor: 8, BlockSize: 1, Rounds: 2, Readout: 0.02, Threshold: 0.25}
	if _, err := bench(exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exp.Succeeded || !exp.KeysAgree {
		t.Errorf("bench(%+v) did not agree on a key", exp)
	}
	if exp.KeyBits == 0 {
		t.Errorf("bench(%+v) extracted an empty key", exp)
	}

	var buf bytes.Buffer
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	if err := tmpl.Execute(&buf, exp); err != nil {
		t.Fatalf("filling line template: %v", err)
	}
	if got, want := strings.Count(buf.String(), ","), strings.Count(header(), ","); got != want {
		t.Errorf("line has %d separators, header has %d", got, want)
	}
}
