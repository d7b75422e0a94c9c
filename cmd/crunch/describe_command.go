package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/bjaus/crunch/jobfile"
)

func newDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Show the options and components of a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := jobfile.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), describe(f))
			return nil
		},
	}
}

func describe(f *jobfile.File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job: %s\n", f.Name)
	if f.Description != "" {
		fmt.Fprintf(&b, "%s\n", f.Description)
	}

	if len(f.Options) > 0 {
		rows := make([][]string, 0, len(f.Options))
		for _, o := range f.Options {
			flag := "--" + o.Name
			if o.Short != "" {
				flag = "-" + o.Short + ", " + flag
			}
			rows = append(rows, []string{flag, cast.ToString(o.Default), strconv.FormatBool(o.Required), o.Usage})
		}
		b.WriteString("\nOptions\n")
		b.WriteString(renderTable([]string{"Flag", "Default", "Required", "Usage"}, rows))
		b.WriteString("\n")
	}

	var rows [][]string
	add := func(stage string, i int, use string, extra string, params jobfile.Params) {
		rows = append(rows, []string{stage, strconv.Itoa(i), use, extra, formatParams(params)})
	}
	for i, c := range f.PreProcess {
		add("pre-process", i, c.Use, "", c.Params)
	}
	for i, c := range f.Sources {
		add("source", i, c.Use, "", c.Params)
	}
	for i, t := range f.Transformations {
		var extra []string
		if t.Name != "" {
			extra = append(extra, "name="+t.Name)
		}
		if t.Buffer > 0 {
			extra = append(extra, "buffer="+strconv.Itoa(t.Buffer))
		}
		if w := t.BufferWhen; w != nil {
			var limits []string
			if w.Size > 0 {
				limits = append(limits, "size="+strconv.Itoa(w.Size))
			}
			if w.MaxWeight > 0 {
				limits = append(limits, w.Weight+"<="+strconv.Itoa(w.MaxWeight))
			}
			if w.MaxKeys > 0 {
				limits = append(limits, w.Key+" keys<="+strconv.Itoa(w.MaxKeys))
			}
			extra = append(extra, "buffer_when("+strings.Join(limits, ", ")+")")
		}
		add("transformation", i, t.Use, strings.Join(extra, " "), t.Params)
	}
	for i, c := range f.Destinations {
		add("destination", i, c.Use, "", c.Params)
	}
	for i, c := range f.PostProcess {
		add("post-process", i, c.Use, "", c.Params)
	}

	b.WriteString("\nComponents\n")
	b.WriteString(renderTable([]string{"Stage", "#", "Use", "Stage Options", "Params"}, rows))
	b.WriteString("\n")
	return b.String()
}

func formatParams(p jobfile.Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}
