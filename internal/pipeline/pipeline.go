// Package pipeline implements the trivial ordered-step runner described
// in spec §6: a named sequence of processors, each optionally forwarding
// its result into a later step's arguments. It is deliberately a thin
// scheduler — no retries, no concurrency, no persistence (spec's explicit
// non-goals) — since the interesting behavior lives in the Evaluator and
// Serializer upstream of it.
package pipeline

import (
	"fmt"
	"log"

	"github.com/kjaganathan/adapt/internal/adapterr"
)

// Processor is one pipeline step's unit of work: named arguments in,
// one result out. Evaluator `pipeline` descriptors resolve to one of
// these via their `processor` callable.
type Processor func(arguments map[string]any) (any, error)

// ForwardRule names a downstream item and the argument name its upstream
// result should be written under.
type ForwardRule struct {
	ForwardTo string
	Name      string
}

// Item is one named pipeline step.
type Item struct {
	Name      string
	Processor Processor
	Arguments map[string]any
	ForwardTo []ForwardRule
}

// AddArgument inserts a new argument, failing if the name is already
// present — the same collision discipline Pipeline.AddItem applies to
// step names.
func (it *Item) AddArgument(name string, value any) error {
	if it.Arguments == nil {
		it.Arguments = make(map[string]any)
	}
	if _, exists := it.Arguments[name]; exists {
		return adapterr.NewPipelineArgumentExists(it.Name, name)
	}
	it.Arguments[name] = value
	return nil
}

// Pipeline holds an insertion-ordered set of named Items and runs them in
// that order, forwarding each item's result into later items' arguments.
type Pipeline struct {
	order []string
	items map[string]*Item
}

// New builds an empty Pipeline.
func New() *Pipeline {
	return &Pipeline{items: make(map[string]*Item)}
}

// AddItem appends item to the pipeline. Re-adding an existing name is a
// fatal error (spec §6: "Re-adding a name... is a fatal error").
func (p *Pipeline) AddItem(item *Item) error {
	if _, exists := p.items[item.Name]; exists {
		return adapterr.NewPipelineNameExists(item.Name)
	}
	p.order = append(p.order, item.Name)
	p.items[item.Name] = item
	return nil
}

// Run executes every item in insertion order, forwarding results per
// ForwardTo rules before moving to the next item.
func (p *Pipeline) Run() error {
	for _, name := range p.order {
		item := p.items[name]
		log.Printf("[START] processing pipeline item %q", name)
		result, err := item.Processor(item.Arguments)
		if err != nil {
			return fmt.Errorf("pipeline: item %q: %w", name, err)
		}
		if err := p.forward(item, result); err != nil {
			return err
		}
		log.Printf("[END] processed pipeline item %q", name)
	}
	return nil
}

func (p *Pipeline) forward(item *Item, result any) error {
	if len(item.ForwardTo) == 0 {
		log.Printf("[INFO] pipeline item %q results are ignored", item.Name)
		return nil
	}
	for _, rule := range item.ForwardTo {
		target, ok := p.items[rule.ForwardTo]
		if !ok {
			return fmt.Errorf("pipeline: item %q forwards to unknown item %q", item.Name, rule.ForwardTo)
		}
		if err := target.AddArgument(rule.Name, result); err != nil {
			return err
		}
	}
	return nil
}
