// Copyright 2025 WhiskeyLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package mapping

// Dynamic policy values. "strict" rejects unknown fields; "false" accepts
// them without indexing guarantees.
const (
	DynamicStrict = "strict"
	DynamicFalse  = "false"
)

// Field primitive types recognized by the validator.
const (
	TypeString  = "string"
	TypeInt     = "int"
	TypeFloat   = "float"
	TypeBool    = "bool"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Field declares one field's type and, for TypeObject, its nested fields.
type Field struct {
	Type   string
	Fields map[string]Field // nested fields, only meaningful for TypeObject
	Items  *Field            // element type, only meaningful for TypeArray
}

// IndexContract is a frozen per-index schema.
type IndexContract struct {
	Name          string
	Shards        int
	Replicas      int
	Dynamic       string
	DateDetection bool
	MetaVersion   string
	Fields        map[string]Field
}

// Index names, one per entity type in the data model.
const (
	IndexArtifacts   = "argonaut-artifacts"
	IndexFindings    = "argonaut-findings"
	IndexDependencies = "argonaut-dependencies"
	IndexComponents  = "argonaut-components"
	IndexReachability = "argonaut-reachability"
	IndexThreatIntel = "argonaut-threat-intel"
	IndexActions     = "argonaut-actions"
	IndexRuns        = "argonaut-runs"
	IndexTaskLogs    = "argonaut-task-logs"
)

// Contracts returns every frozen index contract, keyed by index name.
func Contracts() map[string]IndexContract {
	contracts := []IndexContract{
		artifactsContract(),
		findingsContract(),
		dependenciesContract(),
		componentsContract(),
		reachabilityContract(),
		threatIntelContract(),
		actionsContract(),
		runsContract(),
		taskLogsContract(),
	}
	out := make(map[string]IndexContract, len(contracts))
	for _, c := range contracts {
		out[c.Name] = c
	}
	return out
}

func base(name, dynamic string) IndexContract {
	return IndexContract{
		Name:          name,
		Shards:        1,
		Replicas:      1,
		Dynamic:       dynamic,
		DateDetection: false,
		MetaVersion:   "1.0",
		Fields:        map[string]Field{},
	}
}

func artifactsContract() IndexContract {
	c := base(IndexArtifacts, DynamicFalse)
	c.Fields = map[string]Field{
		"artifactId":   {Type: TypeString},
		"repo":         {Type: TypeString},
		"buildId":      {Type: TypeString},
		"runId":        {Type: TypeString},
		"filename":     {Type: TypeString},
		"objectKey":    {Type: TypeString},
		"sha256":       {Type: TypeString},
		"bytes":        {Type: TypeInt},
		"artifactType": {Type: TypeString},
		"tool":         {Type: TypeString},
		"status":       {Type: TypeString},
		"createdAt":    {Type: TypeInt},
	}
	return c
}

func findingsContract() IndexContract {
	c := base(IndexFindings, DynamicStrict)
	threat := Field{Type: TypeObject, Fields: map[string]Field{
		"kev":    {Type: TypeBool},
		"epss":   {Type: TypeFloat},
		"cve":    {Type: TypeString},
		"source": {Type: TypeString},
	}}
	reach := Field{Type: TypeObject, Fields: map[string]Field{
		"reachable":       {Type: TypeBool},
		"confidenceScore": {Type: TypeFloat},
		"method":          {Type: TypeString},
		"status":          {Type: TypeString},
		"reason":          {Type: TypeString},
		"evidencePath":    {Type: TypeArray, Items: &Field{Type: TypeString}},
		"analysisVersion": {Type: TypeString},
	}}
	context := Field{Type: TypeObject, Fields: map[string]Field{
		"threat":       threat,
		"reachability": reach,
	}}
	explanation := Field{Type: TypeObject, Fields: map[string]Field{
		"explanationId":      {Type: TypeString},
		"findingId":          {Type: TypeString},
		"explanationVersion": {Type: TypeString},
		"reasonCodes":        {Type: TypeArray, Items: &Field{Type: TypeString}},
		"contributions":      {Type: TypeObject, Fields: map[string]Field{}},
	}}
	c.Fields = map[string]Field{
		"findingId":          {Type: TypeString},
		"repo":               {Type: TypeString},
		"buildId":            {Type: TypeString},
		"ruleId":             {Type: TypeString},
		"severity":           {Type: TypeString},
		"cve":                {Type: TypeString},
		"cves":               {Type: TypeArray, Items: &Field{Type: TypeString}},
		"package":            {Type: TypeString},
		"version":            {Type: TypeString},
		"filePath":           {Type: TypeString},
		"lineNumber":         {Type: TypeInt},
		"tool":               {Type: TypeString},
		"fingerprint":        {Type: TypeString},
		"createdAt":          {Type: TypeInt},
		"context":            context,
		"priorityScore":      {Type: TypeInt},
		"priorityExplanation": explanation,
	}
	return c
}

func dependenciesContract() IndexContract {
	c := base(IndexDependencies, DynamicStrict)
	c.Fields = map[string]Field{
		"dependencyId": {Type: TypeString},
		"repo":         {Type: TypeString},
		"buildId":      {Type: TypeString},
		"parent":       {Type: TypeString},
		"child":        {Type: TypeString},
		"version":      {Type: TypeString},
		"scope":        {Type: TypeString},
	}
	return c
}

func componentsContract() IndexContract {
	c := base(IndexComponents, DynamicStrict)
	c.Fields = map[string]Field{
		"componentId": {Type: TypeString},
		"repo":        {Type: TypeString},
		"buildId":     {Type: TypeString},
		"purl":        {Type: TypeString},
		"name":        {Type: TypeString},
		"version":     {Type: TypeString},
		"scope":       {Type: TypeString},
	}
	return c
}

func reachabilityContract() IndexContract {
	c := base(IndexReachability, DynamicStrict)
	c.Fields = map[string]Field{
		"reachabilityId":  {Type: TypeString},
		"findingId":       {Type: TypeString},
		"reachable":       {Type: TypeBool},
		"confidenceScore": {Type: TypeFloat},
		"status":          {Type: TypeString},
		"reason":          {Type: TypeString},
		"evidencePath":    {Type: TypeArray, Items: &Field{Type: TypeString}},
		"method":          {Type: TypeString},
		"analysisVersion": {Type: TypeString},
		"computedAt":      {Type: TypeInt},
	}
	return c
}

func threatIntelContract() IndexContract {
	c := base(IndexThreatIntel, DynamicStrict)
	c.Fields = map[string]Field{
		"intelId": {Type: TypeString},
		"cve":     {Type: TypeString},
		"kev":     {Type: TypeBool},
		"epss":    {Type: TypeFloat},
		"source":  {Type: TypeString},
	}
	return c
}

func actionsContract() IndexContract {
	c := base(IndexActions, DynamicFalse)
	c.Fields = map[string]Field{
		"actionId":        {Type: TypeString},
		"type":            {Type: TypeString},
		"repo":            {Type: TypeString},
		"buildId":         {Type: TypeString},
		"findingId":       {Type: TypeString},
		"findingIds":      {Type: TypeArray, Items: &Field{Type: TypeString}},
		"payload":         {Type: TypeObject, Fields: map[string]Field{}},
		"payloadHash":     {Type: TypeString},
		"templateVersion": {Type: TypeString},
		"attempt":         {Type: TypeInt},
		"status":          {Type: TypeString},
		"idempotencyKey":  {Type: TypeString},
		"createdAt":       {Type: TypeInt},
	}
	return c
}

func runsContract() IndexContract {
	c := base(IndexRuns, DynamicFalse)
	c.Fields = map[string]Field{
		"runId":      {Type: TypeString},
		"repo":       {Type: TypeString},
		"buildId":    {Type: TypeString},
		"status":     {Type: TypeString},
		"startedAt":  {Type: TypeInt},
		"finishedAt": {Type: TypeInt},
	}
	return c
}

func taskLogsContract() IndexContract {
	c := base(IndexTaskLogs, DynamicFalse)
	c.Fields = map[string]Field{
		"taskId":    {Type: TypeString},
		"runId":     {Type: TypeString},
		"stage":     {Type: TypeString},
		"taskKey":   {Type: TypeString},
		"status":    {Type: TypeString},
		"message":   {Type: TypeString},
		"stack":     {Type: TypeString},
		"params":    {Type: TypeObject, Fields: map[string]Field{}},
		"timestamp": {Type: TypeInt},
	}
	return c
}
