package circuitry_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/dsl"
)

// ExampleEngine_Open builds a half adder in a workspace and prints its truth table.
func ExampleEngine_Open() {
	eng, err := circuitry.New()
	if err != nil {
		log.Fatal(err)
	}
	ws, err := eng.Open(context.Background(), "half-adder")
	if err != nil {
		log.Fatal(err)
	}

	a, _ := ws.Add("input", 0, 0, domain.Point{X: 0, Y: 0})
	b, _ := ws.Add("input", 0, 0, domain.Point{X: 0, Y: 40})
	xor, _ := ws.Add("xor", 0, 0, domain.Point{X: 60, Y: 0})
	and, _ := ws.Add("and", 0, 0, domain.Point{X: 60, Y: 40})
	sum, _ := ws.Add("output", 0, 0, domain.Point{X: 120, Y: 0})
	carry, _ := ws.Add("output", 0, 0, domain.Point{X: 120, Y: 40})

	slot := func(c *domain.Component, i int) domain.SlotRef {
		return domain.SlotRef{Component: c.Handle(), Index: i}
	}
	err = ws.Connect(
		domain.Wire{From: slot(a, 0), To: slot(xor, 0)},
		domain.Wire{From: slot(b, 0), To: slot(xor, 1)},
		domain.Wire{From: slot(a, 0), To: slot(and, 0)},
		domain.Wire{From: slot(b, 0), To: slot(and, 1)},
		domain.Wire{From: slot(xor, 0), To: slot(sum, 0)},
		domain.Wire{From: slot(and, 0), To: slot(carry, 0)},
	)
	if err != nil {
		log.Fatal(err)
	}

	rows, err := ws.TruthTable()
	if err != nil {
		log.Fatal(err)
	}
	for _, row := range rows {
		fmt.Println(circuitry.FormatBits(row.Inputs), "->", circuitry.FormatBits(row.Outputs))
	}
	// Output:
	// 00 -> 00
	// 01 -> 10
	// 10 -> 10
	// 11 -> 01
}

// ExampleEngine_Evaluate declares a full adder with the dsl builder and evaluates it once.
func ExampleEngine_Evaluate() {
	b := dsl.New()
	b.Input("a")
	b.Input("b")
	b.Input("cin")
	b.Add("x1", "xor").From("a", "b")
	b.Add("x2", "xor").From("x1", "cin")
	b.Add("a1", "and").From("a", "b")
	b.Add("a2", "and").From("x1", "cin")
	b.Add("o1", "or").From("a1", "a2")
	b.Output("sum").From("x2")
	b.Output("cout").From("o1")

	doc, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := circuitry.New()
	if err != nil {
		log.Fatal(err)
	}
	out, err := eng.Evaluate(doc, true, true, true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(circuitry.FormatBits(out))
	// Output:
	// 11
}
