package jsonparser

import (
	"github.com/sio-contrib/webpubsub-adapter/parser"
	"github.com/sio-contrib/webpubsub-adapter/parser/json/serializer"
)

// maxAttachments is the maximum number of binary attachments to send.
// If maxAttachments is 0, there will be no limit set for binary attachments.
func NewCreator(maxAttachments int, json serializer.JSONSerializer) parser.Creator {
	return func() parser.Parser {
		return &Parser{
			maxAttachments: maxAttachments,
			json:           json,
		}
	}
}

type Parser struct {
	maxAttachments int
	json           serializer.JSONSerializer
}
