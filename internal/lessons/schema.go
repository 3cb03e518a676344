package lessons

import "github.com/abhisek/verba/internal/conversation"

// LessonSchema is sent with every lesson request for native structured
// output. The interpreter validates against the same definition.
var LessonSchema = conversation.LessonSchema
