// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package svcrt

import "context"

// Bundle is the lifecycle hook surface a collaborator implements, per
// spec.md §6: create(context) -> data, start(context, data), stop(context,
// data), destroy(context, data). T is the collaborator's own state,
// produced by Create and threaded through the remaining hooks.
type Bundle[T any] interface {
	// Create builds the bundle's private state. Called once, before
	// Start.
	Create(ctx context.Context, bc *BundleContext) (T, error)

	// Start brings the bundle's services/trackers/components online.
	// Called once, after a successful Create.
	Start(ctx context.Context, bc *BundleContext, data T) error

	// Stop tears down whatever Start brought up. Called once, before
	// Destroy, even if Start itself failed partway through.
	Stop(ctx context.Context, bc *BundleContext, data T) error

	// Destroy releases data's own resources. Called once, last.
	Destroy(ctx context.Context, bc *BundleContext, data T)
}

// Run drives b through its full lifecycle against bc: Create, then Start.
// If Start fails, Stop and Destroy are still invoked for cleanup; if Create
// fails, neither is invoked, since there is no data to hand them. Either
// failure is returned as a KindBundleException wrapping the original
// error. The caller is responsible for calling the
// returned stop function to tear the bundle down later.
func Run[T any](ctx context.Context, bc *BundleContext, b Bundle[T]) (stop func(context.Context), err error) {
	data, err := b.Create(ctx, bc)
	if err != nil {
		return func(context.Context) {}, newError(KindBundleException, err)
	}

	stop = func(stopCtx context.Context) {
		_ = b.Stop(stopCtx, bc, data)
		b.Destroy(stopCtx, bc, data)
	}

	if startErr := b.Start(ctx, bc, data); startErr != nil {
		stop(ctx)
		return func(context.Context) {}, newError(KindBundleException, startErr)
	}

	return stop, nil
}
