/*
Copyright 2025 The Kubeflow authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package util

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// PollUntil invokes check at most once per interval until it reports done,
// returns an error, the context is cancelled, or the timeout elapses. A
// zero timeout polls until cancellation. The limiter keeps describe-call
// volume bounded even if callers pick an aggressive interval.
func PollUntil(ctx context.Context, interval, timeout time.Duration, check func(ctx context.Context) (done bool, err error)) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("polling stopped: %w", context.Cause(ctx))
		}
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
