package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMail_RejectsUnprocessableMessages(t *testing.T) {
	_, err := buildMail("noreply@example.com", []byte("{not json"))
	assert.Error(t, err)

	_, err = buildMail("noreply@example.com", []byte(`{"type":"unknown","to":"a@example.com"}`))
	assert.ErrorContains(t, err, "不支持的邮件类型")

	_, err = buildMail("noreply@example.com", []byte(`{"type":"schedule_ready","to":"not-an-address"}`))
	assert.Error(t, err)
}
