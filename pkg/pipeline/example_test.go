package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vnykmshr/chainflow/pkg/source"
)

// Example demonstrates pushing values through a sealed chain.
func Example() {
	entry := NewPushEntry[int](nil)

	entry.
		Filter(func(_ context.Context, v int) (bool, error) { return v%2 == 1, nil }).
		Map(func(_ context.Context, v int) (int, error) { return v * 10, nil }).
		ForEach(func(_ context.Context, v int) error {
			fmt.Println(v)
			return nil
		})

	for i := 1; i <= 4; i++ {
		if err := entry.Push(context.Background(), i); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	// Output:
	// 10
	// 30
}

// ExampleMap demonstrates a transform that changes the value type.
func ExampleMap() {
	entry := NewPushEntry[string](nil)

	Map(entry.Node, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	}).ForEach(func(_ context.Context, n int) error {
		fmt.Printf("length %d\n", n)
		return nil
	})

	_ = entry.Push(context.Background(), "chainflow")

	// Output:
	// length 9
}

// ExamplePushEntry_Push_error demonstrates that step errors reach the caller.
func ExamplePushEntry_Push_error() {
	errNegative := errors.New("negative value")
	entry := NewPushEntry[int](nil)

	entry.Map(func(_ context.Context, v int) (int, error) {
		if v < 0 {
			return 0, errNegative
		}
		return v, nil
	}).ForEach(func(context.Context, int) error { return nil })

	err := entry.Push(context.Background(), -1)
	fmt.Println(errors.Is(err, errNegative))

	// Output:
	// true
}

// ExampleNode_Steps demonstrates upward propagation of steps.
func ExampleNode_Steps() {
	root := New[int]()
	root.
		Map(func(_ context.Context, v int) (int, error) { return v + 1, nil }).
		ForEach(func(context.Context, int) error { return nil })

	for _, s := range root.Steps() {
		fmt.Println(s.Kind())
	}

	// Output:
	// map
	// terminal
}

// ExampleNewSource demonstrates draining a source.
func ExampleNewSource() {
	p := NewSource[string](source.FromSlice([]string{"a", "", "b"}))

	p.Filter(func(_ context.Context, s string) (bool, error) {
		return s != "", nil
	}).ForEach(func(_ context.Context, s string) error {
		fmt.Println(strings.ToUpper(s))
		return nil
	})

	<-p.Done()

	// Output:
	// A
	// B
}
