// Package services implements the driving ports on top of the driven ones.
//
// The Retriever embeds queries and searches the loaded corpus, the
// AnswerService grounds LLM prompts in retrieved chunks and runs the pipeline
// health check, and the SettingsService backs the configuration commands.
package services
