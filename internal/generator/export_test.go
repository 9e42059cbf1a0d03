package generator

// DedupeQuestions exposes dedupeQuestions to the external test package.
var DedupeQuestions = dedupeQuestions
