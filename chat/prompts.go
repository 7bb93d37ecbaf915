package chat

const rewriteSystemPrompt = `Given a chat history and a follow-up question, rephrase the follow-up question to be a standalone question that can be understood without the history.
Keep the language of the follow-up question.
Reply with the standalone question only, without any preamble.`

const answerSystemPrompt = `You are an expert assistant. Answer the user's question using only the retrieved context below.
If the context does not contain the answer, say that you don't know. Do not make anything up.
Answer in the language of the question.

Context:
%s`

const summarizeSystemPrompt = `You are an expert assistant that summarizes long texts into a concise, easy-to-read summary.
Write the summary in the language of the text.`

const summarizeUserPrompt = "Please summarize the following content:\n\n%s"

// noContextBlock stands in for the context when nothing was retrieved, so
// the model answers that it does not know instead of improvising.
const noContextBlock = "(no relevant context was found)"

const contextDelimiter = "\n\n---\n\n"
