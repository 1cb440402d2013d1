package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	tp "github.com/xlab/treeprint"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stylesync/internal/compiler"
	"github.com/conneroisu/stylesync/internal/css"
	"github.com/conneroisu/stylesync/internal/registry"
	"github.com/conneroisu/stylesync/internal/target"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect [paths...]",
	Aliases: []string{"i"},
	Short:   "Show compiled rules as a tree",
	Long: `Show how each style file compiles: its class names, and its rules grouped
by precedence tier and nesting level. With --id, print the origin tree a rule
id was compiled from instead, which is what overriding that class applies.

Examples:
  stylesync inspect                          # Every consumer
  stylesync inspect --consumer button        # One consumer
  stylesync inspect --containers             # The style containers as written
  stylesync inspect --id h1x2k9a             # Origin tree of a rule`,
	RunE: runInspect,
}

var (
	inspectConsumer   string
	inspectIDs        []string
	inspectContainers bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectConsumer, "consumer", "", "Only show this consumer")
	inspectCmd.Flags().StringSliceVar(&inspectIDs, "id", nil, "Print the merged origin tree of these rule ids")
	inspectCmd.Flags().BoolVar(&inspectContainers, "containers", false, "Show style containers instead of consumers")
}

var tierTitle = cases.Title(language.English)

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	memory := target.NewMemory()
	session, err := newStyleSession(ctx, cfg, memory, newLogger(cfg))
	if err != nil {
		return err
	}
	if err := session.load(ctx, false); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case len(inspectIDs) > 0:
		return session.printOrigins(w, inspectIDs)
	case inspectContainers:
		_, err = io.WriteString(w, containerTree(session).String())
		return err
	}

	var consumers []*registry.Consumer
	if inspectConsumer != "" {
		consumer, ok := session.registry.Get(inspectConsumer)
		if !ok {
			return fmt.Errorf("consumer %q is not mounted", inspectConsumer)
		}
		consumers = append(consumers, consumer)
	} else {
		consumers = session.registry.GetAll()
	}

	if _, err := io.WriteString(w, consumerTree(consumers).String()); err != nil {
		return err
	}
	for _, d := range session.collector.Diagnostics() {
		fmt.Fprintf(w, "error: %s\n", d.Error())
	}
	return nil
}

// printOrigins writes the merged origin tree of ids as YAML.
func (s *styleSession) printOrigins(w io.Writer, ids []string) error {
	for _, id := range ids {
		if _, ok := s.cache.Lookup(id); !ok {
			return fmt.Errorf("rule %s was not produced by any style file", id)
		}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(s.cache.LookupAndMerge(ids)); err != nil {
		return err
	}
	return encoder.Close()
}

func consumerTree(consumers []*registry.Consumer) tp.Tree {
	tree := tp.New()
	for _, consumer := range consumers {
		label := consumer.Name
		if consumer.FilePath != "" {
			label = fmt.Sprintf("%s (%s)", consumer.Name, consumer.FilePath)
		}
		branch := tree.AddBranch(label)
		if len(consumer.Extends) > 0 {
			branch.AddMetaNode("extends", fmt.Sprint(consumer.Extends))
		}
		branch.AddMetaNode("classes", consumer.Result.ClassNames)
		addBuckets(branch, consumer.Result.Buckets)
	}
	return tree
}

// addBuckets adds one branch per non-empty tier, then one per nested group.
func addBuckets(branch tp.Tree, b compiler.Buckets) {
	for _, tier := range css.Tiers {
		rules := b.Tier(tier)
		if len(rules) == 0 {
			continue
		}
		tierBranch := branch.AddBranch(tierTitle.String(tier.String()))
		for _, rule := range rules {
			tierBranch.AddMetaNode(rule.ID, rule.Text)
		}
	}
	for _, nested := range b.Nested {
		if nested.Len() == 0 {
			continue
		}
		addBuckets(branch.AddBranch(nestedLabel(nested)), nested)
	}
}

// nestedLabel names a nested group by the selector of its first rule.
func nestedLabel(b compiler.Buckets) string {
	rules := b.Flatten()
	if len(rules) == 0 {
		return "nested"
	}
	return rules[0].Selector
}

func containerTree(s *styleSession) tp.Tree {
	tree := tp.New()
	for _, tier := range css.Tiers {
		containers := s.manager.Containers(tier)
		if len(containers) == 0 {
			continue
		}
		tierBranch := tree.AddBranch(tierTitle.String(tier.String()))
		for _, c := range containers {
			label := c.Handle
			if c.Full {
				label += " (full)"
			}
			if !c.Attached {
				label += " (detached)"
			}
			branch := tierBranch.AddBranch(label)
			for _, id := range c.IDs {
				branch.AddNode(id)
			}
		}
	}
	return tree
}
