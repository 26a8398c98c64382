// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi wires the registry and scheduler into a Gin HTTP server:
// the four core endpoints, plus health, metrics and a live operations
// stream.
package httpapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/topic-gardener/topic-gardener/internal/registry"
	"github.com/topic-gardener/topic-gardener/pkg/validation"
)

// requestValidate is the shared validator instance for request DTOs.
var requestValidate = validator.New()

// ClassifyRequest is the body of POST /classify. Every field is optional;
// empty anchors/pinned entries are rejected rather than silently
// tolerated, since an empty slug would otherwise collide with "general".
type ClassifyRequest struct {
	Text    string   `json:"text"`
	Anchors []string `json:"anchors" validate:"omitempty,dive,required,min=1"`
	Pinned  []string `json:"pinned" validate:"omitempty,dive,required,min=1"`
}

// validate runs struct-tag validation first (required/min presence
// checks), then pkg/validation's label rules (blank after trimming,
// length, control characters). The registry itself does not validate
// labels, so these checks apply only to requests arriving over HTTP.
func (r ClassifyRequest) validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return err
	}
	if err := validation.ValidateLabels(r.Anchors); err != nil {
		return err
	}
	return validation.ValidateLabels(r.Pinned)
}

// ClassifyResponse is the body of a successful POST /classify response.
type ClassifyResponse struct {
	Topic    string   `json:"topic"`
	TopicKey string   `json:"topicKey"`
	Provider string   `json:"provider"`
	Anchors  []string `json:"anchors"`
	Pinned   []string `json:"pinned"`
	Count    int      `json:"count"`
}

// RefactorResponse is the body of a POST /refactor response.
type RefactorResponse struct {
	Operations []registry.Operation `json:"operations"`
	Count      int                  `json:"count"`
}

// OperationsResponse is the body of a GET /operations response.
type OperationsResponse struct {
	Operations []registry.Operation `json:"operations"`
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}
