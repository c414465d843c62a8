// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package coe reads and writes Xilinx coefficient (COE) files used to
// initialize block memories.
//
package coe

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Write writes values as a COE file in the given radix (2, 10 or 16).
// In radix 2 and 16, entries are written as width bit two's complement words,
// zero padded.
//
func Write(w io.Writer, radix int, width int, values []int64) error {
	if radix != 2 && radix != 10 && radix != 16 {
		return errors.Errorf("unsupported radix %d", radix)
	}
	if len(values) == 0 {
		return errors.New("empty memory")
	}
	if radix != 10 && (width < 1 || width > 64) {
		return errors.Errorf("invalid word width %d", width)
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("memory_initialization_radix=")
	bw.WriteString(strconv.Itoa(radix))
	bw.WriteString(";\nmemory_initialization_vector=\n")
	for i, v := range values {
		bw.WriteString(Format(v, radix, width))
		if i == len(values)-1 {
			bw.WriteString(";\n")
		} else {
			bw.WriteString(",\n")
		}
	}
	return errors.Wrap(bw.Flush(), "write COE")
}

// Format formats v in the given radix. Radix 2 and 16 values are formatted as
// width bit words.
//
func Format(v int64, radix, width int) string {
	if radix == 10 {
		return strconv.FormatInt(v, 10)
	}
	u := uint64(v)
	if width < 64 {
		u &= 1<<uint(width) - 1
	}
	digits := width
	if radix == 16 {
		digits = (width + 3) / 4
	}
	s := strconv.FormatUint(u, radix)
	if n := digits - len(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return s
}

// Read parses a COE file and returns its radix and raw entries. Entries in
// radix 2 and 16 are returned as unsigned words.
//
func Read(r io.Reader) (radix int, values []int64, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, errors.Wrap(err, "read COE")
	}
	var b strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, ";") {
			continue // comment
		}
		b.WriteString(line)
	}
	stmts := strings.Split(b.String(), ";")
	for _, st := range stmts {
		if st == "" {
			continue
		}
		kv := strings.SplitN(st, "=", 2)
		if len(kv) != 2 {
			return 0, nil, errors.Errorf("malformed COE statement %q", st)
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "memory_initialization_radix":
			radix, err = strconv.Atoi(val)
			if err != nil {
				return 0, nil, errors.Wrap(err, "COE radix")
			}
		case "memory_initialization_vector":
			if radix == 0 {
				return 0, nil, errors.New("COE vector before radix")
			}
			for _, f := range strings.Split(val, ",") {
				f = strings.TrimSpace(f)
				if f == "" {
					continue
				}
				var v int64
				if radix == 10 {
					v, err = strconv.ParseInt(f, 10, 64)
				} else {
					var u uint64
					u, err = strconv.ParseUint(f, radix, 64)
					v = int64(u)
				}
				if err != nil {
					return 0, nil, errors.Wrapf(err, "COE entry %q", f)
				}
				values = append(values, v)
			}
		default:
			return 0, nil, errors.Errorf("unknown COE key %q", key)
		}
	}
	if radix == 0 {
		return 0, nil, errors.New("missing memory_initialization_radix")
	}
	return radix, values, nil
}
