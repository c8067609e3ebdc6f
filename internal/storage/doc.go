/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements design persistence for the save service.
// The default store is a single JSON array file rewritten in full per save, with the previous
// contents kept as a .bak sibling for recovery. SQL stores keep the same records in an embedded
// SQLite file or a PostgreSQL database; their schema is versioned and migrated on open.
package storage
