// Package async provides utilities for parallel task execution.
//
// Independent control-plane preparations, such as ensuring a security group
// and a key pair before a launch, run concurrently through RunParallel.
package async

import (
	"context"
	"errors"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them. Every
// failure is returned, joined, each prefixed with its task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "security group", Func: ensureGroup},
//	    {Name: "key pair", Func: ensureKeyPair},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	done := make(chan struct{}, len(tasks))

	for i, task := range tasks {
		go func() {
			defer func() { done <- struct{}{} }()
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
		}()
	}

	for range len(tasks) {
		<-done
	}
	return errors.Join(errs...)
}
