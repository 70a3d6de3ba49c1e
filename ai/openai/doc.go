// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package openai implements ai.AIProvider against OpenAI-compatible
// embeddings endpoints (OpenAI, vLLM, LocalAI, Ollama's /v1 API) using
// langchaingo.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:8000"), // /v1 added automatically
//	    ai.WithModel("sentence-transformers/all-MiniLM-L6-v2"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, texts)
package openai
