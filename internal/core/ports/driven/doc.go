// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Parser: Turns uploaded bytes into plain text
//   - PostProcessor: Splits document text into chunks
//   - DocumentStore: Document and summary history persistence
//   - VectorStore: Chunk vectors and similarity search
//   - EmbeddingService: Generates vector embeddings
//   - QAHistoryStore: Answered question persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Generator / LLMService: Without it, answers and summaries are extractive.
//   - PromptStore: Without it, built-in prompt templates are used.
//   - Validator: Without it, summaries and answers are not scored.
//   - EntityExtractor: Without it, no entities are mined from summaries.
//   - SchedulerStore: Without it, task history is not kept.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
