package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reaktor-dev/reaktor/pkg/reaktor"
)

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a small reactive graph and print what fires",
		Long: `Build a miniature order-total graph, then mutate it and show how
changes settle through derived signals before observers fire.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
	return cmd
}

func runDemo() error {
	info("building graph: price, quantity -> subtotal -> total")

	price := reaktor.NewSignal(9.99)
	quantity := reaktor.NewSignal(2)
	taxRate := reaktor.NewSignal(0.08)

	subtotal := reaktor.Define(func() float64 {
		return price.Get() * float64(quantity.Get())
	})
	total := reaktor.Define(func() float64 {
		return subtotal.Get() * (1 + taxRate.Get())
	})

	_, err := reaktor.NewObserver(func(args ...any) any {
		fmt.Printf("  total is now %.2f (subtotal %.2f)\n", total.Get(), subtotal.Get())
		return nil
	})
	if err != nil {
		return err
	}

	info("setting quantity to 5")
	if err := quantity.Set(5); err != nil {
		return err
	}

	info("batching a price drop and a tax change (one notification)")
	err = reaktor.Batch(func() {
		price.Set(7.49)
		taxRate.Set(0.095)
	})
	if err != nil {
		return err
	}

	info("wrapping an order object in a reactor")
	order := reaktor.NewReactor(map[string]any{
		"customer": "ada",
		"items":    []any{"keyboard", "mouse"},
	})

	_, err = reaktor.NewObserver(func(args ...any) any {
		items := order.Get("items").(*reaktor.ListReactor)
		fmt.Printf("  order for %v has %d items\n", order.Get("customer"), items.Len())
		return nil
	})
	if err != nil {
		return err
	}

	info("appending an item")
	items := order.Get("items").(*reaktor.ListReactor)
	if err := items.Append("monitor"); err != nil {
		return err
	}

	success("demo complete")
	return nil
}
