/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// updateExpr accumulates the SET and REMOVE clauses of an UpdateExpression
// together with their placeholder maps.
type updateExpr struct {
	sets    []string
	removes []string
	names   map[string]string
	values  map[string]types.AttributeValue
	aliases map[string]string
}

func newUpdateExpr() *updateExpr {
	return &updateExpr{
		names:   make(map[string]string),
		values:  make(map[string]types.AttributeValue),
		aliases: make(map[string]string),
	}
}

// name returns the placeholder of attr, reusing it across clauses.
func (u *updateExpr) name(attr string) string {
	if p, ok := u.aliases[attr]; ok {
		return p
	}
	p := fmt.Sprintf("#a%d", len(u.aliases))
	u.aliases[attr] = p
	u.names[p] = attr
	return p
}

func (u *updateExpr) value(v types.AttributeValue) string {
	p := fmt.Sprintf(":v%d", len(u.values))
	u.values[p] = v
	return p
}

func (u *updateExpr) set(attr string, v types.AttributeValue) {
	u.sets = append(u.sets, u.name(attr)+" = "+u.value(v))
}

// setIfAbsent writes v only when the item has no attr yet.
func (u *updateExpr) setIfAbsent(attr string, v types.AttributeValue) {
	n := u.name(attr)
	u.sets = append(u.sets, fmt.Sprintf("%s = if_not_exists(%s, %s)", n, n, u.value(v)))
}

// setNested writes one key of a map attribute.
func (u *updateExpr) setNested(attr, key string, v types.AttributeValue) {
	u.sets = append(u.sets, u.name(attr)+"."+u.name(key)+" = "+u.value(v))
}

func (u *updateExpr) remove(attr string) {
	u.removes = append(u.removes, u.name(attr))
}

func (u *updateExpr) removeNested(attr, key string) {
	u.removes = append(u.removes, u.name(attr)+"."+u.name(key))
}

func (u *updateExpr) String() string {
	var b strings.Builder
	if len(u.sets) > 0 {
		b.WriteString("SET ")
		b.WriteString(strings.Join(u.sets, ", "))
	}
	if len(u.removes) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("REMOVE ")
		b.WriteString(strings.Join(u.removes, ", "))
	}
	return b.String()
}

// withCondition merges the placeholders of a condition built elsewhere.
// Condition placeholders must not collide with the #aN and :vN forms.
func (u *updateExpr) withCondition(names map[string]string, values map[string]types.AttributeValue) {
	for k, v := range names {
		u.names[k] = v
	}
	for k, v := range values {
		u.values[k] = v
	}
}
