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

// Package ai defines the encoding engine used by vectorize.
//
// The pipeline never talks to a model directly. It depends on two
// interfaces:
//
//   - Embedder: turns text into fixed-length float32 vectors and reports
//     the model's dimensionality
//   - AIProvider: owns an Embedder and its client resources
//
// # Implementation Packages
//
//   - ai/openai: any OpenAI-compatible embeddings endpoint (vLLM, LocalAI, Ollama /v1)
//   - ai/ollama: the native Ollama API
//   - ai/huggingface: the Hugging Face inference API
//   - ai/mock: deterministic test doubles
//
// All production implementations are built on langchaingo.
//
// Public constructors return interface types. The mock constructors return
// concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithModel("all-minilm"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	dim, err := provider.Embedder().Dimension(ctx)
//	vectors, err := provider.Embedder().EmbedTexts(ctx, []string{"a", "b"})
package ai
