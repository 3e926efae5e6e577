/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fleet

import (
	"context"
	"sync"
)

type establishFunc func(ctx context.Context) (*Session, error)

// sessionCache holds the current session until it is invalidated.
type sessionCache struct {
	mu      sync.RWMutex
	session *Session
}

// get returns the cached session, establishing a new one when none is held.
func (c *sessionCache) get(ctx context.Context, establish establishFunc) (*Session, error) {
	c.mu.RLock()
	if c.session != nil {
		session := c.session
		c.mu.RUnlock()

		return session, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have established one while we waited
	if c.session != nil {
		return c.session, nil
	}

	session, err := establish(ctx)
	if err != nil {
		return nil, err
	}

	c.session = session

	return session, nil
}

func (c *sessionCache) set(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = session
}

// invalidate drops the session if it is still the one the caller used.
func (c *sessionCache) invalidate(stale *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stale == nil || c.session == stale {
		c.session = nil
	}
}

func (c *sessionCache) current() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session
}
