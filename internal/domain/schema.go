/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import _ "embed"

// DesignsSchema is the JSON schema of a designs file or GET /api/designs body.
//
//go:embed schema/designs.schema.json
var DesignsSchema []byte

// SaveRequestSchema is the JSON schema of a save-design request body. It only
// requires an object; the stickers check is done separately so that the
// error message stays stable.
//
//go:embed schema/save-design.schema.json
var SaveRequestSchema []byte
