// Copyright 2026 The perlmacrogen Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command embedfnc2json converts Perl's embed.fnc apidoc table into JSON,
// for consumption by tools that don't want to link against
// internal/apidoc's parser directly.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hkoba/perlmacrogen/internal/apidoc"
)

// jsonEntry is apidoc.Entry reshaped for serialization: Entry.Flags holds
// an unexported set not meant to round-trip through JSON directly, so
// Flags.Letters() stands in for it.
type jsonEntry struct {
	Name        string    `json:"name"`
	Flags       string    `json:"flags"`
	ReturnType  string    `json:"return_type"`
	Args        []jsonArg `json:"args"`
	Description string    `json:"description,omitempty"`
}

type jsonArg struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Nullability string `json:"nullability,omitempty"`
}

func main() {
	output := flag.String("o", "", "output file path (default: stdout)")
	verbose := flag.Bool("v", false, "print load statistics to stderr")
	compact := flag.Bool("compact", false, "emit compact JSON instead of pretty-printed")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("exactly one input file (embed.fnc) is required")
	}
	inputPath := flag.Arg(0)

	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("opening %s: %v", inputPath, err)
	}
	defer f.Close()

	dict, stats, err := apidoc.ParseEmbedFnc(f)
	if err != nil {
		log.Fatalf("parsing %s: %v", inputPath, err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d entries from %s (%d skipped)\n", stats.Loaded, inputPath, stats.Skipped)
	}

	entries := toJSONEntries(dict.All())
	var data []byte
	if *compact {
		data, err = json.Marshal(entries)
	} else {
		data, err = json.MarshalIndent(entries, "", "  ")
	}
	if err != nil {
		log.Fatalf("marshaling JSON: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Fatalf("creating %s: %v", *output, err)
		}
		defer file.Close()
		out = file
		if *verbose {
			fmt.Fprintf(os.Stderr, "Written to %s\n", *output)
		}
	}
	if _, err := out.Write(data); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	fmt.Fprintln(out)
}

func toJSONEntries(entries []*apidoc.Entry) []jsonEntry {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		args := make([]jsonArg, len(e.Args))
		for j, a := range e.Args {
			args[j] = jsonArg{
				Type:        a.Type,
				Name:        a.Name,
				Nullability: nullabilityString(a.Nullability),
			}
		}
		out[i] = jsonEntry{
			Name:        e.Name,
			Flags:       e.Flags.Letters(),
			ReturnType:  e.ReturnType,
			Args:        args,
			Description: e.Description,
		}
	}
	return out
}

func nullabilityString(n apidoc.Nullability) string {
	switch n {
	case apidoc.NotNull:
		return "not_null"
	case apidoc.Nullable:
		return "nullable"
	case apidoc.NonZero:
		return "non_zero"
	default:
		return ""
	}
}
